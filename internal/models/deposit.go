package models

import "time"

// DepositType - İade edilebilir ambalaj tipi (ör: "24'lü kasa", "1L cam şişe")
// CurrentStock = dükkanda bulunan boş ambalaj adedi. Sadece depozito
// verme/iade işlemleri tarafından değiştirilir, elle güncellenmez.
type DepositType struct {
	ID           uint    `gorm:"primaryKey"`
	Code         string  `gorm:"size:50;uniqueIndex;not null"`
	Name         string  `gorm:"size:100;not null"`
	UnitAmount   float64 `gorm:"not null"` // Birim depozito tutarı
	InitialStock int     `gorm:"not null;default:0"`
	CurrentStock int     `gorm:"not null;default:0"` // >= 0 her zaman
	IsActive     bool    `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DepositDirection - Depozito yönü
type DepositDirection string

const (
	DepositOutgoing DepositDirection = "outgoing" // Müşteriye verilen
	DepositIncoming DepositDirection = "incoming" // Tedarikçiden alınan
)

// DepositStatus - Depozito durumu
type DepositStatus string

const (
	DepositActive            DepositStatus = "active"
	DepositPartiallyReturned DepositStatus = "partially_returned"
	DepositCompleted         DepositStatus = "completed"
	DepositWrittenOff        DepositStatus = "written_off" // İdari kayıp kaydı
)

// Deposit - Tek bir depozito işlemi. UnitAmount işlem anında sabitlenir,
// DepositType fiyatı sonradan değişse bile geçmiş kayıtlar etkilenmez.
type Deposit struct {
	ID            uint             `gorm:"primaryKey"`
	Reference     string           `gorm:"size:50;uniqueIndex;not null"` // DEP-OUT-20250901-XXXXXX
	Direction     DepositDirection `gorm:"size:20;not null;index"`
	CustomerID    *uint            `gorm:"index"` // outgoing için zorunlu
	Customer      *Customer
	SupplierID    *uint `gorm:"index"` // incoming için zorunlu
	Supplier      *Supplier
	DepositTypeID uint `gorm:"index;not null"`
	DepositType   DepositType
	Quantity      int     `gorm:"not null"`
	UnitAmount    float64 `gorm:"not null"`
	TotalAmount   float64 `gorm:"not null"` // Quantity * UnitAmount

	// QuantityReturned + QuantityPending == Quantity her işlemden sonra korunur
	QuantityReturned int `gorm:"not null;default:0"`
	QuantityPending  int `gorm:"not null"`

	Status    DepositStatus `gorm:"size:30;not null;index"`
	Note      string        `gorm:"size:255"`
	CreatedBy uint          `gorm:"not null"` // İşlemi yapan kullanıcı
	Returns   []DepositReturn `gorm:"foreignKey:DepositID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen - Depozito hâlâ iade kabul ediyor mu
func (d *Deposit) IsOpen() bool {
	return d.Status == DepositActive || d.Status == DepositPartiallyReturned
}

// DepositReturn - Bir depozitoya karşı yapılan tek iade olayı.
// Oluşturulduktan sonra değiştirilemez; düzeltme yeni kayıtla yapılır.
type DepositReturn struct {
	ID        uint   `gorm:"primaryKey"`
	Reference string `gorm:"size:50;uniqueIndex;not null"` // RET-20250901-XXXXXX
	DepositID uint   `gorm:"index;not null"`
	Deposit   Deposit

	Quantity int `gorm:"not null"`
	// GoodCondition + Damaged + Lost == Quantity
	GoodCondition int `gorm:"not null"`
	Damaged       int `gorm:"not null;default:0"`
	Lost          int `gorm:"not null;default:0"`

	RefundAmount  float64 `gorm:"not null"` // GoodCondition * Deposit.UnitAmount
	DamagePenalty float64 `gorm:"not null;default:0"`
	DelayPenalty  float64 `gorm:"not null;default:0"`
	TotalPenalty  float64 `gorm:"not null;default:0"`
	NetRefund     float64 `gorm:"not null"` // max(0, RefundAmount - TotalPenalty)

	Note        string `gorm:"size:255"`
	ProcessedBy uint   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
