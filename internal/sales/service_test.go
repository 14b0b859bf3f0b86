package sales

import (
	"testing"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()

	var category models.ProductCategory
	if err := db.First(&category, "name = ?", "İçecek").Error; err != nil {
		category = models.ProductCategory{Name: "İçecek"}
		require.NoError(t, db.Create(&category).Error)
	}

	product := models.Product{
		Name:          name,
		CategoryID:    category.ID,
		Unit:          "adet",
		SalePrice:     price,
		PurchasePrice: price * 0.7,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func seedCustomer(t *testing.T, db *gorm.DB) *models.Customer {
	t.Helper()
	customer := models.Customer{Name: "Mehmet Büfe", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return &customer
}

func TestCreate_CashSale(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)
	su := seedProduct(t, db, "Su 0.5L", 10, 100)

	sale, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		Items: []ItemInput{
			{ProductID: cola.ID, Quantity: 3},
			{ProductID: su.ID, Quantity: 5},
		},
		SoldBy: 1,
	})
	require.NoError(t, err)

	require.Equal(t, float64(170), sale.TotalAmount) // 3*40 + 5*10
	require.Equal(t, sale.TotalAmount, sale.PaidAmount)
	require.True(t, sale.IsFullyPaid())
	require.Contains(t, sale.Reference, "SAT-")
	require.Len(t, sale.Items, 2)
	require.Equal(t, float64(40), sale.Items[0].UnitPrice)

	// Stoklar düştü
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", cola.ID).Error)
	require.Equal(t, 47, reloaded.StockQuantity)

	// Peşin satış kasaya işlendi
	var movement models.CashMovement
	require.NoError(t, db.First(&movement, "direction = ?", "in").Error)
	require.Equal(t, float64(170), movement.Amount)
	require.Equal(t, models.CashMethodNakit, movement.Method)
}

func TestCreate_CardSale_CashMethod(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)

	_, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentKart,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 1}},
		SoldBy:        1,
	})
	require.NoError(t, err)

	var movement models.CashMovement
	require.NoError(t, db.First(&movement).Error)
	require.Equal(t, models.CashMethodKart, movement.Method)
}

func TestCreate_CreditSale(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)
	customer := seedCustomer(t, db)
	due := time.Now().AddDate(0, 1, 0)

	sale, err := Create(db, CreateInput{
		CustomerID:    &customer.ID,
		PaymentMethod: models.PaymentVeresiye,
		DueDate:       &due,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 2}},
		SoldBy:        1,
	})
	require.NoError(t, err)

	require.Equal(t, float64(0), sale.PaidAmount)
	require.Equal(t, models.SaleUnpaid, sale.ComputedStatus(time.Now()))

	// Veresiye satış kasaya düşmez
	var count int64
	db.Model(&models.CashMovement{}).Count(&count)
	require.Zero(t, count)
}

func TestCreate_CreditSaleValidation(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)
	customer := seedCustomer(t, db)
	due := time.Now().AddDate(0, 1, 0)

	var ve *apperr.ValidationError

	// Müşterisiz veresiye olmaz
	_, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentVeresiye,
		DueDate:       &due,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 1}},
		SoldBy:        1,
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "customer_id", ve.Field)

	// Vadesiz veresiye olmaz
	_, err = Create(db, CreateInput{
		CustomerID:    &customer.ID,
		PaymentMethod: models.PaymentVeresiye,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 1}},
		SoldBy:        1,
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "due_date", ve.Field)

	// Boş fiş olmaz
	_, err = Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		SoldBy:        1,
	})
	require.ErrorAs(t, err, &ve)
}

func TestCreate_InsufficientStock(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 2)

	_, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 3}},
		SoldBy:        1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	require.Equal(t, 2, bre.Current["stock_quantity"])

	// Satış ve kalem yazılmadı, stok yerinde
	var count int64
	db.Model(&models.Sale{}).Count(&count)
	require.Zero(t, count)
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", cola.ID).Error)
	require.Equal(t, 2, reloaded.StockQuantity)
}

func TestCreate_MultiItemRollback(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)
	su := seedProduct(t, db, "Su 0.5L", 10, 1)

	// İkinci kalem patlayınca ilk kalemin stok düşümü de geri alınır
	_, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		Items: []ItemInput{
			{ProductID: cola.ID, Quantity: 5},
			{ProductID: su.ID, Quantity: 2},
		},
		SoldBy: 1,
	})
	require.Error(t, err)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", cola.ID).Error)
	require.Equal(t, 50, reloaded.StockQuantity)
}

func TestCreate_InactiveProduct(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", cola.ID).Update("is_active", false).Error)

	_, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 1}},
		SoldBy:        1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
}

func TestCreate_PriceFixedAtSaleTime(t *testing.T) {
	db := newTestDB(t)
	cola := seedProduct(t, db, "Kola 1L", 40, 50)

	sale, err := Create(db, CreateInput{
		PaymentMethod: models.PaymentNakit,
		Items:         []ItemInput{{ProductID: cola.ID, Quantity: 1}},
		SoldBy:        1,
	})
	require.NoError(t, err)

	// Ürün zamlansa bile eski fiş değişmez
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", cola.ID).Update("sale_price", 55).Error)

	var item models.SaleItem
	require.NoError(t, db.First(&item, "sale_id = ?", sale.ID).Error)
	require.Equal(t, float64(40), item.UnitPrice)
}
