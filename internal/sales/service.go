package sales

import (
	"errors"
	"fmt"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"
	"smartdrink-backend/internal/refgen"

	"gorm.io/gorm"
)

type ItemInput struct {
	ProductID uint
	Quantity  int
}

type CreateInput struct {
	CustomerID    *uint
	PaymentMethod models.PaymentMethod
	DueDate       *time.Time
	Note          string
	Items         []ItemInput
	SoldBy        uint
}

// Create - Satış fişi oluştur. Kalem fiyatları satış anında üründen
// okunup sabitlenir, stok aynı transaction'da düşülür. Peşin satışlar
// tamamı ödenmiş açılır ve kasaya işlenir; veresiye satış CreditPayment
// kayıtlarının çapası olur.
func Create(db *gorm.DB, in CreateInput) (*models.Sale, error) {
	switch in.PaymentMethod {
	case models.PaymentNakit, models.PaymentKart:
	case models.PaymentVeresiye:
		if in.CustomerID == nil {
			return nil, apperr.Validation("customer_id", "veresiye satış için zorunlu")
		}
		if in.DueDate == nil {
			return nil, apperr.Validation("due_date", "veresiye satış için zorunlu")
		}
	default:
		return nil, apperr.Validation("payment_method", "'nakit', 'kart' veya 'veresiye' olmalı")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("items", "en az bir kalem olmalı")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperr.Validation("items", "kalem miktarı en az 1 olmalı")
		}
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

	sale := models.Sale{
		Reference:     refgen.New(refgen.PrefixSale, time.Now()),
		CustomerID:    in.CustomerID,
		PaymentMethod: in.PaymentMethod,
		DueDate:       in.DueDate,
		Note:          in.Note,
		SoldBy:        in.SoldBy,
	}

	var total float64
	items := make([]models.SaleItem, 0, len(in.Items))
	for _, item := range in.Items {
		var product models.Product
		if err := database.LockForUpdate(tx).First(&product, "id = ?", item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Ürün")
			}
			return nil, err
		}
		if !product.IsActive {
			tx.Rollback()
			return nil, apperr.BusinessRule(fmt.Sprintf("Ürün satışa kapalı: %s", product.Name))
		}
		if product.StockQuantity < item.Quantity {
			tx.Rollback()
			return nil, apperr.BusinessRuleWith(
				fmt.Sprintf("Yetersiz stok: %s", product.Name),
				map[string]interface{}{"product_id": product.ID, "stock_quantity": product.StockQuantity},
			)
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock_quantity", product.StockQuantity-item.Quantity).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		lineTotal := float64(item.Quantity) * product.SalePrice
		total += lineTotal
		items = append(items, models.SaleItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitPrice: product.SalePrice,
			LineTotal: lineTotal,
		})
	}

	sale.TotalAmount = total
	if in.PaymentMethod != models.PaymentVeresiye {
		sale.PaidAmount = total
	}
	sale.Items = items

	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Peşin satış kasaya düşer
	if in.PaymentMethod != models.PaymentVeresiye {
		method := models.CashMethodNakit
		if in.PaymentMethod == models.PaymentKart {
			method = models.CashMethodKart
		}
		movement := models.CashMovement{
			Date:        time.Now().Truncate(24 * time.Hour),
			Method:      method,
			Direction:   "in",
			Amount:      total,
			Description: fmt.Sprintf("Satış %s", sale.Reference),
			CreatedBy:   in.SoldBy,
		}
		if err := tx.Create(&movement).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}
