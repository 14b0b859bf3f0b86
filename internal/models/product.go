package models

import "time"

type ProductCategory struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product - Satılan içecek ürünü
type Product struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:100;not null;unique"`
	Barcode       string `gorm:"size:50;index"` // Opsiyonel barkod
	CategoryID    uint   `gorm:"index;not null"`
	Category      ProductCategory
	Unit          string  `gorm:"size:20;not null"` // adet, koli, şişe vs.
	SalePrice     float64 `gorm:"not null"`
	PurchasePrice float64 `gorm:"not null"`
	StockQuantity int     `gorm:"not null;default:0"`
	AlertLevel    int     `gorm:"not null;default:0"` // Bu seviyenin altı stok uyarısı
	// Depozitolu ürünse hangi ambalaj tipine bağlı (kasalı/şişeli içecekler)
	DepositTypeID *uint `gorm:"index"`
	DepositType   *DepositType
	IsActive      bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
