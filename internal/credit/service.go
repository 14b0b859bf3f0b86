package credit

import (
	"errors"
	"fmt"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"gorm.io/gorm"
)

// Veresiye defteri. Sale.PaidAmount tek otoriter sayaçtır: ödeme kaydı ve
// geri alma aynı transaction içinde satışı kilitleyip sayacı günceller.
// is_fully_paid / is_overdue gibi türetilmiş alanlar hiçbir zaman kolon
// olarak saklanmaz, okuma anında hesaplanır.

type PaymentInput struct {
	SaleID      uint
	Amount      float64
	Method      models.PaymentMethod
	PaymentDate time.Time
	Note        string
	RecordedBy  uint
}

// RecordPayment - Veresiye satışa ödeme işle. Tutar kalan bakiyeyi
// aşarsa reddedilir ve güncel kalan, hata ile birlikte döner.
func RecordPayment(db *gorm.DB, in PaymentInput) (*models.CreditPayment, *models.Sale, error) {
	if in.Amount <= 0 {
		return nil, nil, apperr.Validation("amount", "0'dan büyük olmalı")
	}
	if in.Method != models.PaymentNakit && in.Method != models.PaymentKart {
		return nil, nil, apperr.Validation("method", "'nakit' veya 'kart' olmalı")
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
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

	var sale models.Sale
	if err := database.LockForUpdate(tx).First(&sale, "id = ?", in.SaleID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("Satış")
		}
		return nil, nil, err
	}

	if sale.PaymentMethod != models.PaymentVeresiye {
		tx.Rollback()
		return nil, nil, apperr.BusinessRule("Bu satış veresiye değil")
	}

	remaining := sale.Remaining()
	if in.Amount > remaining {
		tx.Rollback()
		return nil, nil, apperr.BusinessRuleWith(
			fmt.Sprintf("Ödeme tutarı (%.2f TL) kalan bakiyeyi (%.2f TL) aşıyor", in.Amount, remaining),
			map[string]interface{}{"remaining": remaining},
		)
	}

	payment := models.CreditPayment{
		SaleID:      sale.ID,
		Amount:      in.Amount,
		Method:      in.Method,
		PaymentDate: in.PaymentDate,
		Note:        in.Note,
		RecordedBy:  in.RecordedBy,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	sale.PaidAmount += in.Amount
	if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("paid_amount", sale.PaidAmount).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &payment, &sale, nil
}

// VoidPayment - Ödemeyi geri al. Sadece 24 saatlik pencere içinde
// yapılabilir; kayıt silinmez, işaretlenir ve satışın ödenen tutarı
// aynı transaction'da geri düşülür.
func VoidPayment(db *gorm.DB, paymentID uint, voidedBy uint, now time.Time) (*models.CreditPayment, *models.Sale, error) {
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

	var payment models.CreditPayment
	if err := database.LockForUpdate(tx).First(&payment, "id = ?", paymentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("Ödeme")
		}
		return nil, nil, err
	}

	if payment.IsVoided {
		tx.Rollback()
		return nil, nil, apperr.BusinessRule("Ödeme zaten geri alınmış")
	}
	if !payment.CanVoid(now) {
		tx.Rollback()
		return nil, nil, apperr.ErrVoidWindowExpired
	}

	var sale models.Sale
	if err := database.LockForUpdate(tx).First(&sale, "id = ?", payment.SaleID).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	sale.PaidAmount -= payment.Amount
	if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
		Update("paid_amount", sale.PaidAmount).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	payment.IsVoided = true
	payment.VoidedBy = &voidedBy
	payment.VoidedAt = &now
	if err := tx.Model(&models.CreditPayment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"is_voided": true,
		"voided_by": voidedBy,
		"voided_at": now,
	}).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &payment, &sale, nil
}

type Summary struct {
	OpenSales        int64   `json:"open_sales"`
	TotalOutstanding float64 `json:"total_outstanding"`
	OverdueCount     int64   `json:"overdue_count"`
	OverdueAmount    float64 `json:"overdue_amount"`
}

// Summarize - Veresiye özeti. Danışma amaçlı; hata durumunda sıfırlarla
// döner.
func Summarize(db *gorm.DB, now time.Time) Summary {
	var out Summary

	open := db.Model(&models.Sale{}).
		Where("payment_method = ? AND paid_amount < total_amount", models.PaymentVeresiye)

	if err := open.Session(&gorm.Session{}).Count(&out.OpenSales).Error; err != nil {
		return Summary{}
	}
	if err := open.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount - paid_amount), 0)").
		Scan(&out.TotalOutstanding).Error; err != nil {
		return Summary{}
	}

	overdue := db.Model(&models.Sale{}).
		Where("payment_method = ? AND paid_amount < total_amount AND due_date IS NOT NULL AND due_date < ?",
			models.PaymentVeresiye, now)

	if err := overdue.Session(&gorm.Session{}).Count(&out.OverdueCount).Error; err != nil {
		return Summary{}
	}
	if err := overdue.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount - paid_amount), 0)").
		Scan(&out.OverdueAmount).Error; err != nil {
		return Summary{}
	}

	return out
}
