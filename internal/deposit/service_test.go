package deposit

import (
	"testing"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// -------------------------
// Test Helpers
// -------------------------

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

type fixtures struct {
	customer models.Customer
	supplier models.Supplier
	crate    models.DepositType
}

func seed(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	f := fixtures{
		customer: models.Customer{Name: "Ahmet Bakkal", IsActive: true},
		supplier: models.Supplier{Name: "Anadolu Dağıtım", IsActive: true},
		crate: models.DepositType{
			Code:         "KASA-24",
			Name:         "24'lü kasa",
			UnitAmount:   50,
			InitialStock: 100,
			CurrentStock: 100,
			IsActive:     true,
		},
	}
	require.NoError(t, db.Create(&f.customer).Error)
	require.NoError(t, db.Create(&f.supplier).Error)
	require.NoError(t, db.Create(&f.crate).Error)
	return f
}

func currentStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var dt models.DepositType
	require.NoError(t, db.First(&dt, "id = ?", id).Error)
	return dt.CurrentStock
}

func issueOutgoing(t *testing.T, db *gorm.DB, f fixtures, qty int) *models.Deposit {
	t.Helper()
	dep, err := Issue(db, IssueInput{
		Direction:     models.DepositOutgoing,
		CustomerID:    &f.customer.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      qty,
		UnitAmount:    f.crate.UnitAmount,
		CreatedBy:     1,
	})
	require.NoError(t, err)
	return dep
}

// -------------------------
// Issue
// -------------------------

func TestIssue_Outgoing(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	dep := issueOutgoing(t, db, f, 10)

	require.Equal(t, models.DepositActive, dep.Status)
	require.Equal(t, 10, dep.Quantity)
	require.Equal(t, 0, dep.QuantityReturned)
	require.Equal(t, 10, dep.QuantityPending)
	require.Equal(t, float64(500), dep.TotalAmount)
	require.Contains(t, dep.Reference, "DEP-OUT-")

	// Boş ambalaj dükkandan çıktı
	require.Equal(t, 90, currentStock(t, db, f.crate.ID))
}

func TestIssue_Incoming(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	dep, err := Issue(db, IssueInput{
		Direction:     models.DepositIncoming,
		SupplierID:    &f.supplier.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      20,
		UnitAmount:    50,
		CreatedBy:     1,
	})
	require.NoError(t, err)
	require.Contains(t, dep.Reference, "DEP-IN-")

	// Dolu kasalar geldi, boş ambalaj stoğu arttı
	require.Equal(t, 120, currentStock(t, db, f.crate.ID))
}

func TestIssue_InsufficientStock(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	_, err := Issue(db, IssueInput{
		Direction:     models.DepositOutgoing,
		CustomerID:    &f.customer.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      101,
		UnitAmount:    50,
		CreatedBy:     1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	require.Equal(t, 100, bre.Current["current_stock"])

	// İşlem hiç iz bırakmadı
	require.Equal(t, 100, currentStock(t, db, f.crate.ID))
	var count int64
	db.Model(&models.Deposit{}).Count(&count)
	require.Zero(t, count)
}

func TestIssue_Validation(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	var ve *apperr.ValidationError

	_, err := Issue(db, IssueInput{
		Direction:     models.DepositOutgoing,
		CustomerID:    &f.customer.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      0,
		CreatedBy:     1,
	})
	require.ErrorAs(t, err, &ve)

	// outgoing müşterisiz olmaz
	_, err = Issue(db, IssueInput{
		Direction:     models.DepositOutgoing,
		DepositTypeID: f.crate.ID,
		Quantity:      1,
		CreatedBy:     1,
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "customer_id", ve.Field)

	// incoming tedarikçisiz olmaz
	_, err = Issue(db, IssueInput{
		Direction:     models.DepositIncoming,
		DepositTypeID: f.crate.ID,
		Quantity:      1,
		CreatedBy:     1,
	})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "supplier_id", ve.Field)
}

func TestIssue_InactiveType(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	require.NoError(t, db.Model(&models.DepositType{}).
		Where("id = ?", f.crate.ID).Update("is_active", false).Error)

	_, err := Issue(db, IssueInput{
		Direction:     models.DepositOutgoing,
		CustomerID:    &f.customer.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      1,
		UnitAmount:    50,
		CreatedBy:     1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
}

// -------------------------
// ProcessReturn
// -------------------------

func TestProcessReturn_PartialThenComplete(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)

	// 6 kasa döndü: 5 sağlam, 1 hasarlı, 20 TL hasar cezası
	ret, updated, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      6,
		GoodCondition: 5,
		Damaged:       1,
		DamagePenalty: 20,
		ProcessedBy:   1,
	})
	require.NoError(t, err)

	require.Equal(t, float64(250), ret.RefundAmount) // 5 * 50
	require.Equal(t, float64(20), ret.TotalPenalty)
	require.Equal(t, float64(230), ret.NetRefund)
	require.Contains(t, ret.Reference, "RET-")

	require.Equal(t, 6, updated.QuantityReturned)
	require.Equal(t, 4, updated.QuantityPending)
	require.Equal(t, models.DepositPartiallyReturned, updated.Status)

	// Sadece sağlam dönenler rafa geri girer: 90 + 5
	require.Equal(t, 95, currentStock(t, db, f.crate.ID))

	// Kalan 4: 2 sağlam, 2 kayıp
	_, updated, err = ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      4,
		GoodCondition: 2,
		Lost:          2,
		ProcessedBy:   1,
	})
	require.NoError(t, err)
	require.Equal(t, models.DepositCompleted, updated.Status)
	require.Equal(t, 10, updated.QuantityReturned)
	require.Equal(t, 0, updated.QuantityPending)
	require.Equal(t, 97, currentStock(t, db, f.crate.ID))
}

func TestProcessReturn_SplitMismatch(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)

	_, _, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      5,
		GoodCondition: 3,
		Damaged:       1,
		ProcessedBy:   1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	// Stok 90'da kaldı, kısmi yazma olmadı
	require.Equal(t, 90, currentStock(t, db, f.crate.ID))
}

func TestProcessReturn_ExceedsPending(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)

	_, _, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      11,
		GoodCondition: 11,
		ProcessedBy:   1,
	})

	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	require.Equal(t, 10, bre.Current["quantity_pending"])
}

func TestProcessReturn_ClosedDeposit(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 5)

	_, _, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      5,
		GoodCondition: 5,
		ProcessedBy:   1,
	})
	require.NoError(t, err)

	// Tamamlanan depozitoya ikinci iade: aynı istek tekrar gelse bile
	// sayaçlar iki kez düşmez
	_, _, err = ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      1,
		GoodCondition: 1,
		ProcessedBy:   1,
	})
	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
	require.Equal(t, 100, currentStock(t, db, f.crate.ID))
}

func TestProcessReturn_NetRefundFloor(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 2)

	// Ceza iade tutarını aşıyor, net iade eksiye düşmez
	ret, _, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      1,
		GoodCondition: 1,
		DamagePenalty: 80,
		ProcessedBy:   1,
	})
	require.NoError(t, err)
	require.Equal(t, float64(50), ret.RefundAmount)
	require.Equal(t, float64(0), ret.NetRefund)
}

func TestProcessReturn_IncomingMirror(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	dep, err := Issue(db, IssueInput{
		Direction:     models.DepositIncoming,
		SupplierID:    &f.supplier.ID,
		DepositTypeID: f.crate.ID,
		Quantity:      30,
		UnitAmount:    50,
		CreatedBy:     1,
	})
	require.NoError(t, err)
	require.Equal(t, 130, currentStock(t, db, f.crate.ID))

	// Tedarikçiye boş kasa iadesi stoktan düşer
	_, _, err = ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      10,
		GoodCondition: 10,
		ProcessedBy:   1,
	})
	require.NoError(t, err)
	require.Equal(t, 120, currentStock(t, db, f.crate.ID))
}

// -------------------------
// Delete / WriteOff
// -------------------------

func TestDelete_ReversesStock(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)
	require.Equal(t, 90, currentStock(t, db, f.crate.ID))

	require.NoError(t, Delete(db, dep.ID))
	require.Equal(t, 100, currentStock(t, db, f.crate.ID))

	var count int64
	db.Model(&models.Deposit{}).Count(&count)
	require.Zero(t, count)
}

func TestDelete_BlockedByReturns(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)

	_, _, err := ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      1,
		GoodCondition: 1,
		ProcessedBy:   1,
	})
	require.NoError(t, err)

	err = Delete(db, dep.ID)
	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)
}

func TestWriteOff(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	dep := issueOutgoing(t, db, f, 10)

	written, err := WriteOff(db, dep.ID)
	require.NoError(t, err)
	require.Equal(t, models.DepositWrittenOff, written.Status)

	// Sayaçlar ve stok donar
	var reloaded models.Deposit
	require.NoError(t, db.First(&reloaded, "id = ?", dep.ID).Error)
	require.Equal(t, 10, reloaded.QuantityPending)
	require.Equal(t, 90, currentStock(t, db, f.crate.ID))

	// Kayıttan düşülene iade reddedilir
	_, _, err = ProcessReturn(db, dep.ID, ReturnInput{
		Quantity:      1,
		GoodCondition: 1,
		ProcessedBy:   1,
	})
	var bre *apperr.BusinessRuleError
	require.ErrorAs(t, err, &bre)

	// İkinci kez düşülemez
	_, err = WriteOff(db, dep.ID)
	require.ErrorAs(t, err, &bre)
}

func TestWriteOff_NotFound(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)

	_, err := WriteOff(db, 999)
	var nfe *apperr.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

// -------------------------
// Stats
// -------------------------

func TestStats(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)

	dep1 := issueOutgoing(t, db, f, 10) // 500 TL
	issueOutgoing(t, db, f, 4)          // 200 TL

	_, _, err := ProcessReturn(db, dep1.ID, ReturnInput{
		Quantity:      3,
		GoodCondition: 2,
		Damaged:       1,
		DamagePenalty: 25,
		DelayPenalty:  5,
		ProcessedBy:   1,
	})
	require.NoError(t, err)

	stats := Stats(db)
	require.Equal(t, int64(2), stats.ActiveDeposits)
	require.Equal(t, int64(11), stats.TotalUnitsOut) // 7 + 4 bekleyen
	require.Equal(t, float64(700), stats.TotalDepositsAmount)
	require.Equal(t, float64(30), stats.TotalPenalties)
}
