package contact

import (
	"fmt"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateSupplierRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type SupplierResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// SupplierDetailResponse - kart + tedarikçide bekleyen ambalaj bakiyesi
type SupplierDetailResponse struct {
	SupplierResponse
	DepositUnitsPending int64   `json:"deposit_units_pending"`
	DepositAmountHeld   float64 `json:"deposit_amount_held"`
}

func supplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Name:        s.Name,
		Phone:       s.Phone,
		Address:     s.Address,
		Description: s.Description,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------
// Tedarikçi CRUD
// -------------------------

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "name zorunlu")
		}

		supplier := models.Supplier{
			Name:        body.Name,
			Phone:       strings.TrimSpace(body.Phone),
			Address:     strings.TrimSpace(body.Address),
			Description: strings.TrimSpace(body.Description),
			IsActive:    true,
		}

		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Tedarikçi eklendi: %s", supplier.Name),
				Before:      nil,
				After:       supplier,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    supplierResponse(&supplier),
		})
	}
}

// GET /api/suppliers?q=&active=true
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Supplier{})

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR phone LIKE ?", like, like)
		}
		if active := c.Query("active"); active == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var suppliers []models.Supplier
		if err := dbq.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, supplierResponse(&suppliers[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		detail := SupplierDetailResponse{SupplierResponse: supplierResponse(&supplier)}

		var deposits []models.Deposit
		if err := database.DB.
			Where("supplier_id = ? AND direction = ?", supplier.ID, models.DepositIncoming).
			Find(&deposits).Error; err == nil {
			for i := range deposits {
				if deposits[i].IsOpen() {
					detail.DepositUnitsPending += int64(deposits[i].QuantityPending)
					detail.DepositAmountHeld += float64(deposits[i].QuantityPending) * deposits[i].UnitAmount
				}
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": detail})
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body UpdateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		before := supplier

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "name boş olamaz")
			}
			supplier.Name = name
		}
		if body.Phone != nil {
			supplier.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			supplier.Address = strings.TrimSpace(*body.Address)
		}
		if body.Description != nil {
			supplier.Description = strings.TrimSpace(*body.Description)
		}
		if body.IsActive != nil {
			supplier.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Tedarikçi güncellendi: %s", supplier.Name),
				Before:      before,
				After:       supplier,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": supplierResponse(&supplier)})
	}
}

// DELETE /api/suppliers/:id - depozito kaydı varsa silinemez
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var depositCount int64
		database.DB.Model(&models.Deposit{}).Where("supplier_id = ?", supplier.ID).Count(&depositCount)
		if depositCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Depozito kaydı olan tedarikçi silinemez, pasife alın")
		}

		if err := database.DB.Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "supplier",
				EntityID:    supplier.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Tedarikçi silindi: %s", supplier.Name),
				Before:      supplier,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Tedarikçi silindi"})
	}
}
