package deposit

import (
	"fmt"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Ambalaj Tipi CRUD
// -------------------------

type CreateDepositTypeRequest struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	UnitAmount   float64 `json:"unit_amount"`
	InitialStock int     `json:"initial_stock"`
}

type UpdateDepositTypeRequest struct {
	Name       *string  `json:"name"`
	UnitAmount *float64 `json:"unit_amount"`
	IsActive   *bool    `json:"is_active"`
}

type DepositTypeResponse struct {
	ID           uint    `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	UnitAmount   float64 `json:"unit_amount"`
	InitialStock int     `json:"initial_stock"`
	CurrentStock int     `json:"current_stock"`
	IsActive     bool    `json:"is_active"`
}

func depositTypeResponse(dt *models.DepositType) DepositTypeResponse {
	return DepositTypeResponse{
		ID:           dt.ID,
		Code:         dt.Code,
		Name:         dt.Name,
		UnitAmount:   dt.UnitAmount,
		InitialStock: dt.InitialStock,
		CurrentStock: dt.CurrentStock,
		IsActive:     dt.IsActive,
	}
}

// POST /api/deposit-types
func CreateDepositTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDepositTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Code = strings.TrimSpace(strings.ToUpper(body.Code))
		body.Name = strings.TrimSpace(body.Name)

		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "code ve name zorunlu")
		}
		if body.UnitAmount < 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "unit_amount negatif olamaz")
		}
		if body.InitialStock < 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "initial_stock negatif olamaz")
		}

		dt := models.DepositType{
			Code:         body.Code,
			Name:         body.Name,
			UnitAmount:   body.UnitAmount,
			InitialStock: body.InitialStock,
			CurrentStock: body.InitialStock,
			IsActive:     true,
		}

		if err := database.DB.Create(&dt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ambalaj tipi kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "deposit_type",
				EntityID:    dt.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ambalaj tipi eklendi: %s (%s)", dt.Name, dt.Code),
				Before:      nil,
				After:       dt,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    depositTypeResponse(&dt),
		})
	}
}

// GET /api/deposit-types?active=true
func ListDepositTypesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.DepositType{})
		if c.Query("active") == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var types []models.DepositType
		if err := dbq.Order("code asc").Find(&types).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ambalaj tipleri listelenemedi")
		}

		resp := make([]DepositTypeResponse, 0, len(types))
		for i := range types {
			resp = append(resp, depositTypeResponse(&types[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// PUT /api/deposit-types/:id
// current_stock buradan güncellenemez; stok sadece depozito
// verme/iade işlemleriyle değişir.
func UpdateDepositTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var dt models.DepositType
		if err := database.DB.First(&dt, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ambalaj tipi bulunamadı")
		}

		var body UpdateDepositTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := dt

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "name boş olamaz")
			}
			dt.Name = name
		}
		if body.UnitAmount != nil {
			if *body.UnitAmount < 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "unit_amount negatif olamaz")
			}
			// Fiyat değişikliği geçmiş depozitoları etkilemez; tutar
			// işlem anında Deposit üzerinde sabitlenir
			dt.UnitAmount = *body.UnitAmount
		}
		if body.IsActive != nil {
			dt.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&dt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ambalaj tipi güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "deposit_type",
				EntityID:    dt.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Ambalaj tipi güncellendi: %s", dt.Name),
				Before:      before,
				After:       dt,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": depositTypeResponse(&dt)})
	}
}

// DELETE /api/deposit-types/:id
func DeleteDepositTypeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var dt models.DepositType
		if err := database.DB.First(&dt, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ambalaj tipi bulunamadı")
		}

		var depositCount int64
		database.DB.Model(&models.Deposit{}).Where("deposit_type_id = ?", dt.ID).Count(&depositCount)
		if depositCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Depozito kaydı olan ambalaj tipi silinemez")
		}

		if err := database.DB.Delete(&dt).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ambalaj tipi silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "deposit_type",
				EntityID:    dt.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ambalaj tipi silindi: %s (%s)", dt.Name, dt.Code),
				Before:      dt,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Ambalaj tipi silindi"})
	}
}
