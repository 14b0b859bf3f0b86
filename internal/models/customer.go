package models

import "time"

// Customer - Müşteri kartı (veresiye ve depozito takibi için)
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:50;index"` // Opsiyonel telefon
	Address   string `gorm:"size:255"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
