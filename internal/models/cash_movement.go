package models

import "time"

type CashMethod string

const (
	CashMethodNakit CashMethod = "nakit"
	CashMethodKart  CashMethod = "kart"
)

// CashMovement - Kasa giriş/çıkış kaydı. Peşin satışlar ve depozito net
// iadeleri buraya da düşer, dashboard kasayı buradan okur.
type CashMovement struct {
	ID          uint       `gorm:"primaryKey"`
	Date        time.Time  `gorm:"index;not null"` // gün bazlı
	Method      CashMethod `gorm:"size:20;not null"`
	Direction   string     `gorm:"size:10;not null"` // "in" / "out"
	Amount      float64    `gorm:"not null"`
	Description string     `gorm:"size:255"`
	CreatedBy   uint       `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
