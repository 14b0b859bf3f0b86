package models

import "time"

// PaymentMethod - Ödeme yöntemi
type PaymentMethod string

const (
	PaymentNakit    PaymentMethod = "nakit"
	PaymentKart     PaymentMethod = "kart"
	PaymentVeresiye PaymentMethod = "veresiye" // Vadeli satış
)

// SaleStatus - Satış ödeme durumu. Kolon olarak SAKLANMAZ; PaidAmount,
// TotalAmount ve DueDate üzerinden okuma anında hesaplanır.
type SaleStatus string

const (
	SaleUnpaid  SaleStatus = "unpaid"
	SalePartial SaleStatus = "partial"
	SalePaid    SaleStatus = "paid"
	SaleOverdue SaleStatus = "overdue"
)

// Sale - Satış fişi. Veresiye satışlar CreditPayment kayıtlarının çapasıdır.
type Sale struct {
	ID         uint   `gorm:"primaryKey"`
	Reference  string `gorm:"size:50;uniqueIndex;not null"` // SAT-20250901-XXXXXX
	CustomerID *uint  `gorm:"index"`                        // veresiye için zorunlu
	Customer   *Customer

	TotalAmount   float64       `gorm:"not null"`
	PaidAmount    float64       `gorm:"not null;default:0"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null;index"`
	DueDate       *time.Time    `gorm:"index"` // sadece veresiye

	Note      string `gorm:"size:255"`
	SoldBy    uint   `gorm:"not null"`
	Items     []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments  []CreditPayment `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Remaining - Kalan bakiye
func (s *Sale) Remaining() float64 {
	return s.TotalAmount - s.PaidAmount
}

func (s *Sale) IsFullyPaid() bool {
	return s.PaidAmount >= s.TotalAmount
}

func (s *Sale) IsOverdue(now time.Time) bool {
	return s.DueDate != nil && s.DueDate.Before(now) && s.Remaining() > 0
}

// ComputedStatus - Okuma anında hesaplanan durum; kolonla senkron tutma
// derdi yok çünkü kaynak her zaman tutarlar ve vade tarihi.
func (s *Sale) ComputedStatus(now time.Time) SaleStatus {
	switch {
	case s.IsFullyPaid():
		return SalePaid
	case s.IsOverdue(now):
		return SaleOverdue
	case s.PaidAmount > 0:
		return SalePartial
	default:
		return SaleUnpaid
	}
}

// SaleItem - Satış kalemi (fiyat satış anında sabitlenir)
type SaleItem struct {
	ID        uint `gorm:"primaryKey"`
	SaleID    uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
	LineTotal float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoidWindow - Bir ödemenin geri alınabileceği süre
const VoidWindow = 24 * time.Hour

// CreditPayment - Veresiye satışa yapılan tek ödeme. Silme yerine
// IsVoided işareti kullanılır, geçmiş kaybolmaz.
type CreditPayment struct {
	ID     uint `gorm:"primaryKey"`
	SaleID uint `gorm:"index;not null"`
	Sale   Sale

	Amount      float64       `gorm:"not null"`
	Method      PaymentMethod `gorm:"size:20;not null"` // nakit veya kart
	PaymentDate time.Time     `gorm:"index;not null"`
	Note        string        `gorm:"size:255"`
	RecordedBy  uint          `gorm:"not null"`

	IsVoided bool       `gorm:"not null;default:false;index"`
	VoidedBy *uint
	VoidedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanVoid - Ödeme şu an geri alınabilir mi (24 saatlik pencere)
func (p *CreditPayment) CanVoid(now time.Time) bool {
	return !p.IsVoided && now.Sub(p.CreatedAt) <= VoidWindow
}
