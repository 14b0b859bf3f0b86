package database

import (
	"log"

	"smartdrink-backend/internal/config"
	"smartdrink-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate - Tüm tabloları oluştur/güncelle. Testler de aynı şemayı
// kullanabilsin diye ayrı fonksiyon.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Supplier{},
		&models.ProductCategory{},
		&models.Product{},
		&models.DepositType{},
		&models.Deposit{},
		&models.DepositReturn{},
		&models.Sale{},
		&models.SaleItem{},
		&models.CreditPayment{},
		&models.CashMovement{},
		&models.AuditLog{},
	)
}

// LockForUpdate - Bakiye satırlarını read-modify-write öncesi kilitle
// (SELECT ... FOR UPDATE). SQLite FOR UPDATE desteklemez, testlerde
// kilitleme atlanır; orada zaten tek bağlantı var.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
