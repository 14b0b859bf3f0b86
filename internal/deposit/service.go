package deposit

import (
	"errors"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"
	"smartdrink-backend/internal/refgen"

	"gorm.io/gorm"
)

// Depozito defterinin çekirdeği. Her mutasyon tek transaction içinde
// bakiye satırını kilitleyip okur ve aynı transaction'da yazar; iki
// eşzamanlı iade aynı bekleyen miktarı iki kez düşemez.

type IssueInput struct {
	Direction     models.DepositDirection
	CustomerID    *uint
	SupplierID    *uint
	DepositTypeID uint
	Quantity      int
	UnitAmount    float64
	Note          string
	CreatedBy     uint
}

// Issue - Depozito işlemi aç (outgoing: müşteriye verilen, incoming:
// tedarikçiden alınan). Boş ambalaj stoğu outgoing'de azalır (kasa
// dükkandan çıkar), incoming'de artar (kasa dükkana girer).
func Issue(db *gorm.DB, in IssueInput) (*models.Deposit, error) {
	if in.Quantity < 1 {
		return nil, apperr.Validation("quantity", "en az 1 olmalı")
	}
	if in.UnitAmount < 0 {
		return nil, apperr.Validation("unit_amount", "negatif olamaz")
	}

	var prefix string
	switch in.Direction {
	case models.DepositOutgoing:
		if in.CustomerID == nil {
			return nil, apperr.Validation("customer_id", "outgoing depozito için zorunlu")
		}
		in.SupplierID = nil
		prefix = refgen.PrefixDepositOut
	case models.DepositIncoming:
		if in.SupplierID == nil {
			return nil, apperr.Validation("supplier_id", "incoming depozito için zorunlu")
		}
		in.CustomerID = nil
		prefix = refgen.PrefixDepositIn
	default:
		return nil, apperr.Validation("direction", "'outgoing' veya 'incoming' olmalı")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Karşı tarafın varlığını doğrula
	if in.CustomerID != nil {
		var cust models.Customer
		if err := tx.First(&cust, "id = ?", *in.CustomerID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Müşteri")
			}
			return nil, err
		}
	}
	if in.SupplierID != nil {
		var sup models.Supplier
		if err := tx.First(&sup, "id = ?", *in.SupplierID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Tedarikçi")
			}
			return nil, err
		}
	}

	// Ambalaj tipini kilitle ve stoğu aynı transaction'da güncelle
	var dt models.DepositType
	if err := database.LockForUpdate(tx).First(&dt, "id = ?", in.DepositTypeID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Ambalaj tipi")
		}
		return nil, err
	}
	if !dt.IsActive {
		return nil, rollback(tx, apperr.BusinessRule("Ambalaj tipi pasif durumda"))
	}

	switch in.Direction {
	case models.DepositOutgoing:
		if dt.CurrentStock < in.Quantity {
			return nil, rollback(tx, apperr.BusinessRuleWith(
				"Yeterli boş ambalaj stoğu yok",
				map[string]interface{}{"current_stock": dt.CurrentStock},
			))
		}
		dt.CurrentStock -= in.Quantity
	case models.DepositIncoming:
		dt.CurrentStock += in.Quantity
	}

	if err := tx.Model(&models.DepositType{}).Where("id = ?", dt.ID).
		Update("current_stock", dt.CurrentStock).Error; err != nil {
		return nil, rollback(tx, err)
	}

	dep := models.Deposit{
		Reference:       refgen.New(prefix, time.Now()),
		Direction:       in.Direction,
		CustomerID:      in.CustomerID,
		SupplierID:      in.SupplierID,
		DepositTypeID:   dt.ID,
		Quantity:        in.Quantity,
		UnitAmount:      in.UnitAmount,
		TotalAmount:     float64(in.Quantity) * in.UnitAmount,
		QuantityPending: in.Quantity,
		Status:          models.DepositActive,
		Note:            in.Note,
		CreatedBy:       in.CreatedBy,
	}
	if err := tx.Create(&dep).Error; err != nil {
		return nil, rollback(tx, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	dep.DepositType = dt
	return &dep, nil
}

type ReturnInput struct {
	Quantity      int
	GoodCondition int
	Damaged       int
	Lost          int
	DamagePenalty float64
	DelayPenalty  float64
	Note          string
	ProcessedBy   uint
}

// ProcessReturn - Depozitoya iade uygula: iade kaydı, sayaçlar, durum ve
// ambalaj stoğu tek transaction'da değişir, biri başarısız olursa hepsi
// geri alınır.
func ProcessReturn(db *gorm.DB, depositID uint, in ReturnInput) (*models.DepositReturn, *models.Deposit, error) {
	if in.Quantity < 1 {
		return nil, nil, apperr.Validation("quantity", "en az 1 olmalı")
	}
	if in.GoodCondition < 0 || in.Damaged < 0 || in.Lost < 0 {
		return nil, nil, apperr.Validation("split", "sağlam/hasarlı/kayıp negatif olamaz")
	}
	if in.DamagePenalty < 0 || in.DelayPenalty < 0 {
		return nil, nil, apperr.Validation("penalty", "ceza tutarı negatif olamaz")
	}
	if in.GoodCondition+in.Damaged+in.Lost != in.Quantity {
		return nil, nil, apperr.BusinessRule("Sağlam + hasarlı + kayıp toplamı iade miktarına eşit olmalı")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Depozito satırını kilitle: "quantity <= pending" kontrolü bayat
	// değere karşı yapılamasın
	var dep models.Deposit
	if err := database.LockForUpdate(tx).First(&dep, "id = ?", depositID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("Depozito")
		}
		return nil, nil, err
	}

	if !dep.IsOpen() {
		return nil, nil, rollback(tx, apperr.BusinessRule("Depozito iadeye kapalı (tamamlanmış veya kayıttan düşülmüş)"))
	}
	if in.Quantity > dep.QuantityPending {
		return nil, nil, rollback(tx, apperr.BusinessRuleWith(
			"İade miktarı bekleyen miktarı aşıyor",
			map[string]interface{}{"quantity_pending": dep.QuantityPending},
		))
	}

	refundAmount := float64(in.GoodCondition) * dep.UnitAmount
	totalPenalty := in.DamagePenalty + in.DelayPenalty
	netRefund := refundAmount - totalPenalty
	if netRefund < 0 {
		netRefund = 0
	}

	ret := models.DepositReturn{
		Reference:     refgen.New(refgen.PrefixReturn, time.Now()),
		DepositID:     dep.ID,
		Quantity:      in.Quantity,
		GoodCondition: in.GoodCondition,
		Damaged:       in.Damaged,
		Lost:          in.Lost,
		RefundAmount:  refundAmount,
		DamagePenalty: in.DamagePenalty,
		DelayPenalty:  in.DelayPenalty,
		TotalPenalty:  totalPenalty,
		NetRefund:     netRefund,
		Note:          in.Note,
		ProcessedBy:   in.ProcessedBy,
	}
	if err := tx.Create(&ret).Error; err != nil {
		return nil, nil, rollback(tx, err)
	}

	dep.QuantityReturned += in.Quantity
	dep.QuantityPending -= in.Quantity
	if dep.QuantityPending == 0 {
		dep.Status = models.DepositCompleted
	} else {
		dep.Status = models.DepositPartiallyReturned
	}
	if err := tx.Model(&models.Deposit{}).Where("id = ?", dep.ID).Updates(map[string]interface{}{
		"quantity_returned": dep.QuantityReturned,
		"quantity_pending":  dep.QuantityPending,
		"status":            dep.Status,
	}).Error; err != nil {
		return nil, nil, rollback(tx, err)
	}

	// Sağlam dönen ambalaj stoğu etkiler: outgoing iadesinde kasa dükkana
	// geri gelir (+), incoming iadesinde tedarikçiye gider (−)
	if in.GoodCondition > 0 {
		var dt models.DepositType
		if err := database.LockForUpdate(tx).First(&dt, "id = ?", dep.DepositTypeID).Error; err != nil {
			return nil, nil, rollback(tx, err)
		}
		switch dep.Direction {
		case models.DepositOutgoing:
			dt.CurrentStock += in.GoodCondition
		case models.DepositIncoming:
			if dt.CurrentStock < in.GoodCondition {
				return nil, nil, rollback(tx, apperr.BusinessRuleWith(
					"Tedarikçiye iade için yeterli boş ambalaj stoğu yok",
					map[string]interface{}{"current_stock": dt.CurrentStock},
				))
			}
			dt.CurrentStock -= in.GoodCondition
		}
		if err := tx.Model(&models.DepositType{}).Where("id = ?", dt.ID).
			Update("current_stock", dt.CurrentStock).Error; err != nil {
			return nil, nil, rollback(tx, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &ret, &dep, nil
}

// Delete - Depozitoyu sil. Herhangi bir iade kaydı varsa silinemez;
// silmede işlem açılışındaki stok hareketi geri alınır.
func Delete(db *gorm.DB, depositID uint) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var dep models.Deposit
	if err := database.LockForUpdate(tx).First(&dep, "id = ?", depositID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Depozito")
		}
		return err
	}

	var returnCount int64
	if err := tx.Model(&models.DepositReturn{}).Where("deposit_id = ?", dep.ID).Count(&returnCount).Error; err != nil {
		tx.Rollback()
		return err
	}
	if returnCount > 0 {
		tx.Rollback()
		return apperr.BusinessRule("İade kaydı olan depozito silinemez")
	}

	var dt models.DepositType
	if err := database.LockForUpdate(tx).First(&dt, "id = ?", dep.DepositTypeID).Error; err != nil {
		tx.Rollback()
		return err
	}
	switch dep.Direction {
	case models.DepositOutgoing:
		dt.CurrentStock += dep.Quantity
	case models.DepositIncoming:
		if dt.CurrentStock < dep.Quantity {
			tx.Rollback()
			return apperr.BusinessRuleWith(
				"Stok geri alınamıyor, boş ambalaj stoğu yetersiz",
				map[string]interface{}{"current_stock": dt.CurrentStock},
			)
		}
		dt.CurrentStock -= dep.Quantity
	}
	if err := tx.Model(&models.DepositType{}).Where("id = ?", dt.ID).
		Update("current_stock", dt.CurrentStock).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Delete(&dep).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// WriteOff - Depozitoyu idari olarak kayıttan düş (müşteri kasaları
// getirmeyecek). Sayaçlara dokunulmaz, durum tek başına kaybı işaretler;
// sonrası iadeler reddedilir.
func WriteOff(db *gorm.DB, depositID uint) (*models.Deposit, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var dep models.Deposit
	if err := database.LockForUpdate(tx).First(&dep, "id = ?", depositID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Depozito")
		}
		return nil, err
	}
	if !dep.IsOpen() {
		return nil, rollback(tx, apperr.BusinessRule("Sadece açık depozito kayıttan düşülebilir"))
	}
	if dep.QuantityPending == 0 {
		return nil, rollback(tx, apperr.BusinessRule("Bekleyen miktarı olmayan depozito kayıttan düşülemez"))
	}

	dep.Status = models.DepositWrittenOff
	if err := tx.Model(&models.Deposit{}).Where("id = ?", dep.ID).
		Update("status", dep.Status).Error; err != nil {
		return nil, rollback(tx, err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &dep, nil
}

type StatsSummary struct {
	ActiveDeposits      int64   `json:"active_deposits"`
	TotalUnitsOut       int64   `json:"total_units_out"`
	TotalDepositsAmount float64 `json:"total_deposits_amount"`
	TotalPenalties      float64 `json:"total_penalties"`
}

// Stats - Gösterge paneli özeti. Danışma amaçlı; beklenmedik hatada hata
// yaymak yerine sıfırlanmış değerlerle döner.
func Stats(db *gorm.DB) StatsSummary {
	var out StatsSummary

	openStatuses := []models.DepositStatus{models.DepositActive, models.DepositPartiallyReturned}

	if err := db.Model(&models.Deposit{}).
		Where("status IN ?", openStatuses).
		Count(&out.ActiveDeposits).Error; err != nil {
		return StatsSummary{}
	}

	if err := db.Model(&models.Deposit{}).
		Where("direction = ? AND status IN ?", models.DepositOutgoing, openStatuses).
		Select("COALESCE(SUM(quantity_pending), 0)").
		Scan(&out.TotalUnitsOut).Error; err != nil {
		return StatsSummary{}
	}

	if err := db.Model(&models.Deposit{}).
		Where("status IN ?", openStatuses).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&out.TotalDepositsAmount).Error; err != nil {
		return StatsSummary{}
	}

	if err := db.Model(&models.DepositReturn{}).
		Select("COALESCE(SUM(total_penalty), 0)").
		Scan(&out.TotalPenalties).Error; err != nil {
		return StatsSummary{}
	}

	return out
}

func rollback(tx *gorm.DB, err error) error {
	tx.Rollback()
	return err
}
