package credit

import (
	"testing"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"
	"smartdrink-backend/internal/refgen"

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

func seedCreditSale(t *testing.T, db *gorm.DB, total float64, dueDate time.Time) *models.Sale {
	t.Helper()

	customer := models.Customer{Name: "Ayşe Market", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	sale := models.Sale{
		Reference:     refgen.New(refgen.PrefixSale, time.Now()),
		CustomerID:    &customer.ID,
		TotalAmount:   total,
		PaymentMethod: models.PaymentVeresiye,
		DueDate:       &dueDate,
		SoldBy:        1,
	}
	require.NoError(t, db.Create(&sale).Error)
	return &sale
}

// -------------------------
// RecordPayment
// -------------------------

func TestRecordPayment_Partial(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	payment, updated, err := RecordPayment(db, PaymentInput{
		SaleID:     sale.ID,
		Amount:     200,
		Method:     models.PaymentNakit,
		RecordedBy: 1,
	})
	require.NoError(t, err)
	require.Equal(t, float64(200), payment.Amount)
	require.Equal(t, float64(200), updated.PaidAmount)
	require.Equal(t, float64(300), updated.Remaining())
	require.Equal(t, models.SalePartial, updated.ComputedStatus(time.Now()))
}

func TestRecordPayment_FullPaysOff(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	_, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 300, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	_, updated, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 200, Method: models.PaymentKart, RecordedBy: 1,
	})
	require.NoError(t, err)
	require.True(t, updated.IsFullyPaid())
	require.Equal(t, models.SalePaid, updated.ComputedStatus(time.Now()))

	// Ödemeler toplamı sayaçla tutarlı
	var sum float64
	require.NoError(t, db.Model(&models.CreditPayment{}).
		Where("sale_id = ? AND is_voided = ?", sale.ID, false).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error)
	require.Equal(t, updated.PaidAmount, sum)
}

func TestRecordPayment_Overpay(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	_, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 200, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	_, _, err = RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 301, Method: models.PaymentNakit, RecordedBy: 1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	require.Equal(t, float64(300), bre.Current["remaining"])

	// Reddedilen ödeme iz bırakmadı
	var count int64
	db.Model(&models.CreditPayment{}).Where("sale_id = ?", sale.ID).Count(&count)
	require.Equal(t, int64(1), count)
}

func TestRecordPayment_NonCreditSale(t *testing.T) {
	db := newTestDB(t)

	sale := models.Sale{
		Reference:     "SAT-TEST-CASH",
		TotalAmount:   100,
		PaidAmount:    100,
		PaymentMethod: models.PaymentNakit,
		SoldBy:        1,
	}
	require.NoError(t, db.Create(&sale).Error)

	_, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 50, Method: models.PaymentNakit, RecordedBy: 1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
}

func TestRecordPayment_Validation(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	var ve *apperr.ValidationError

	_, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 0, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.ErrorAs(t, err, &ve)

	// Veresiye ödemesi veresiye ile yapılamaz
	_, _, err = RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 50, Method: models.PaymentVeresiye, RecordedBy: 1,
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "method", ve.Field)
}

// -------------------------
// VoidPayment
// -------------------------

func TestVoidPayment_RestoresBalance(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	payment, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 200, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	voided, updated, err := VoidPayment(db, payment.ID, 2, time.Now())
	require.NoError(t, err)
	require.True(t, voided.IsVoided)
	require.NotNil(t, voided.VoidedBy)
	require.Equal(t, uint(2), *voided.VoidedBy)
	require.NotNil(t, voided.VoidedAt)
	require.Equal(t, float64(0), updated.PaidAmount)

	// Kayıt silinmedi, işaretlendi
	var count int64
	db.Model(&models.CreditPayment{}).Where("sale_id = ?", sale.ID).Count(&count)
	require.Equal(t, int64(1), count)
}

func TestVoidPayment_AlreadyVoided(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	payment, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 200, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	_, _, err = VoidPayment(db, payment.ID, 2, time.Now())
	require.NoError(t, err)

	// İkinci void bakiyeyi tekrar düşüremez
	_, _, err = VoidPayment(db, payment.ID, 2, time.Now())
	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)

	var reloaded models.Sale
	require.NoError(t, db.First(&reloaded, "id = ?", sale.ID).Error)
	require.Equal(t, float64(0), reloaded.PaidAmount)
}

func TestVoidPayment_WindowExpired(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, 30))

	payment, _, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 200, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	// 24 saat + 1 dakika sonra
	later := time.Now().Add(models.VoidWindow + time.Minute)
	_, _, err = VoidPayment(db, payment.ID, 2, later)
	require.ErrorIs(t, err, apperr.ErrVoidWindowExpired)

	var reloaded models.Sale
	require.NoError(t, db.First(&reloaded, "id = ?", sale.ID).Error)
	require.Equal(t, float64(200), reloaded.PaidAmount)
}

func TestVoidPayment_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, _, err := VoidPayment(db, 999, 1, time.Now())
	var nfe *apperr.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

// -------------------------
// Computed status / Summarize
// -------------------------

func TestComputedStatus_Overdue(t *testing.T) {
	db := newTestDB(t)
	sale := seedCreditSale(t, db, 500, time.Now().AddDate(0, 0, -1))

	require.Equal(t, models.SaleOverdue, sale.ComputedStatus(time.Now()))

	// Tamamı ödenince vade geçmiş olsa da paid görünür
	_, updated, err := RecordPayment(db, PaymentInput{
		SaleID: sale.ID, Amount: 500, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)
	require.Equal(t, models.SalePaid, updated.ComputedStatus(time.Now()))
}

func TestSummarize(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	s1 := seedCreditSale(t, db, 500, now.AddDate(0, 0, 30)) // açık
	seedCreditSale(t, db, 300, now.AddDate(0, 0, -5))       // vadesi geçmiş
	s3 := seedCreditSale(t, db, 200, now.AddDate(0, 0, 10)) // kapanacak

	_, _, err := RecordPayment(db, PaymentInput{
		SaleID: s1.ID, Amount: 100, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)
	_, _, err = RecordPayment(db, PaymentInput{
		SaleID: s3.ID, Amount: 200, Method: models.PaymentNakit, RecordedBy: 1,
	})
	require.NoError(t, err)

	sum := Summarize(db, now)
	require.Equal(t, int64(2), sum.OpenSales)
	require.Equal(t, float64(700), sum.TotalOutstanding) // 400 + 300
	require.Equal(t, int64(1), sum.OverdueCount)
	require.Equal(t, float64(300), sum.OverdueAmount)
}
