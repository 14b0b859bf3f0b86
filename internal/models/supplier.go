package models

import "time"

// Supplier - Tedarikçi kartı (alımlar ve gelen depozitolar için)
type Supplier struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Phone       string `gorm:"size:50"`
	Address     string `gorm:"size:255"`
	Description string `gorm:"size:255"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
