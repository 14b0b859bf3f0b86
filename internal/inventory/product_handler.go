package inventory

import (
	"fmt"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateProductRequest struct {
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	CategoryID    uint    `json:"category_id"`
	Unit          string  `json:"unit"`
	SalePrice     float64 `json:"sale_price"`
	PurchasePrice float64 `json:"purchase_price"`
	StockQuantity int     `json:"stock_quantity"`
	AlertLevel    int     `json:"alert_level"`
	DepositTypeID *uint   `json:"deposit_type_id"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Barcode       *string  `json:"barcode"`
	CategoryID    *uint    `json:"category_id"`
	Unit          *string  `json:"unit"`
	SalePrice     *float64 `json:"sale_price"`
	PurchasePrice *float64 `json:"purchase_price"`
	AlertLevel    *int     `json:"alert_level"`
	DepositTypeID *uint    `json:"deposit_type_id"`
	IsActive      *bool    `json:"is_active"`
}

type StockAdjustRequest struct {
	Delta int    `json:"delta"` // pozitif alım, negatif düzeltme
	Note  string `json:"note"`
}

type ProductResponse struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode,omitempty"`
	CategoryID    uint    `json:"category_id"`
	CategoryName  string  `json:"category_name,omitempty"`
	Unit          string  `json:"unit"`
	SalePrice     float64 `json:"sale_price"`
	PurchasePrice float64 `json:"purchase_price"`
	StockQuantity int     `json:"stock_quantity"`
	AlertLevel    int     `json:"alert_level"`
	DepositTypeID *uint   `json:"deposit_type_id,omitempty"`
	IsActive      bool    `json:"is_active"`
	LowStock      bool    `json:"low_stock"`
}

func productResponse(p *models.Product) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       p.Barcode,
		CategoryID:    p.CategoryID,
		Unit:          p.Unit,
		SalePrice:     p.SalePrice,
		PurchasePrice: p.PurchasePrice,
		StockQuantity: p.StockQuantity,
		AlertLevel:    p.AlertLevel,
		DepositTypeID: p.DepositTypeID,
		IsActive:      p.IsActive,
		LowStock:      p.AlertLevel > 0 && p.StockQuantity <= p.AlertLevel,
	}
	if p.Category.ID != 0 {
		resp.CategoryName = p.Category.Name
	}
	return resp
}

// -------------------------
// Ürün CRUD
// -------------------------

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "name ve unit zorunlu")
		}
		if body.CategoryID == 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "category_id zorunlu")
		}
		if body.SalePrice < 0 || body.PurchasePrice < 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "fiyat negatif olamaz")
		}
		if body.StockQuantity < 0 || body.AlertLevel < 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "stok değerleri negatif olamaz")
		}

		var category models.ProductCategory
		if err := database.DB.First(&category, "id = ?", body.CategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		if body.DepositTypeID != nil {
			var dt models.DepositType
			if err := database.DB.First(&dt, "id = ?", *body.DepositTypeID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Ambalaj tipi bulunamadı")
			}
		}

		product := models.Product{
			Name:          body.Name,
			Barcode:       strings.TrimSpace(body.Barcode),
			CategoryID:    body.CategoryID,
			Unit:          body.Unit,
			SalePrice:     body.SalePrice,
			PurchasePrice: body.PurchasePrice,
			StockQuantity: body.StockQuantity,
			AlertLevel:    body.AlertLevel,
			DepositTypeID: body.DepositTypeID,
			IsActive:      true,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün eklendi: %s", product.Name),
				After:       product,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    productResponse(&product),
		})
	}
}

// GET /api/products?q=&category_id=&active=true&low_stock=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{}).Preload("Category")

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR barcode LIKE ?", like, like)
		}
		if catID := c.QueryInt("category_id"); catID > 0 {
			dbq = dbq.Where("category_id = ?", catID)
		}
		if c.Query("active") == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		lowOnly := c.Query("low_stock") == "true"

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			pr := productResponse(&products[i])
			if lowOnly && !pr.LowStock {
				continue
			}
			resp = append(resp, pr)
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var product models.Product
		if err := database.DB.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		return c.JSON(fiber.Map{"success": true, "data": productResponse(&product)})
	}
}

// PUT /api/products/:id - stok bu uçtan değişmez, adjust-stock kullan
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		before := product

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "name boş olamaz")
			}
			product.Name = name
		}
		if body.Barcode != nil {
			product.Barcode = strings.TrimSpace(*body.Barcode)
		}
		if body.CategoryID != nil {
			var category models.ProductCategory
			if err := database.DB.First(&category, "id = ?", *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
			}
			product.CategoryID = *body.CategoryID
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "unit boş olamaz")
			}
			product.Unit = unit
		}
		if body.SalePrice != nil {
			if *body.SalePrice < 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "sale_price negatif olamaz")
			}
			product.SalePrice = *body.SalePrice
		}
		if body.PurchasePrice != nil {
			if *body.PurchasePrice < 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "purchase_price negatif olamaz")
			}
			product.PurchasePrice = *body.PurchasePrice
		}
		if body.AlertLevel != nil {
			if *body.AlertLevel < 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "alert_level negatif olamaz")
			}
			product.AlertLevel = *body.AlertLevel
		}
		if body.DepositTypeID != nil {
			if *body.DepositTypeID == 0 {
				product.DepositTypeID = nil
			} else {
				var dt models.DepositType
				if err := database.DB.First(&dt, "id = ?", *body.DepositTypeID).Error; err != nil {
					return fiber.NewError(fiber.StatusNotFound, "Ambalaj tipi bulunamadı")
				}
				product.DepositTypeID = body.DepositTypeID
			}
		}
		if body.IsActive != nil {
			product.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ürün güncellendi: %s", product.Name),
				Before:      before,
				After:       product,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": productResponse(&product)})
	}
}

// POST /api/products/:id/adjust-stock - alım girişi veya sayım düzeltmesi
func AdjustStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body StockAdjustRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.Delta == 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "delta sıfır olamaz")
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		var product models.Product
		if err := database.LockForUpdate(tx).First(&product, "id = ?", id).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		before := product
		newQty := product.StockQuantity + body.Delta
		if newQty < 0 {
			tx.Rollback()
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Stok eksiye düşemez, mevcut: %d", product.StockQuantity))
		}
		product.StockQuantity = newQty

		if err := tx.Save(&product).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			desc := fmt.Sprintf("Stok düzeltildi: %s (%+d)", product.Name, body.Delta)
			if body.Note != "" {
				desc += " - " + body.Note
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionUpdate,
				Description: desc,
				Before:      before,
				After:       product,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": productResponse(&product)})
	}
}

// DELETE /api/products/:id - satış kalemi varsa silinemez
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var itemCount int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", product.ID).Count(&itemCount)
		if itemCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış kaydı olan ürün silinemez, pasife alın")
		}

		if err := database.DB.Delete(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product",
				EntityID:    product.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s", product.Name),
				Before:      product,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Ürün silindi"})
	}
}
