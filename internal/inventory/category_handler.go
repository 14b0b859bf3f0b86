package inventory

import (
	"fmt"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/auth"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryRequest struct {
	Name string `json:"name"`
}

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userID, err := auth.UserID(c)
	if err != nil {
		return 0, "", err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// -------------------------
// Kategori CRUD
// -------------------------

// POST /api/product-categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "name zorunlu")
		}

		category := models.ProductCategory{Name: body.Name}
		if err := database.DB.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product_category",
				EntityID:    category.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Kategori eklendi: %s", category.Name),
				After:       category,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    CategoryResponse{ID: category.ID, Name: category.Name},
		})
	}
}

// GET /api/product-categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.ProductCategory
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		resp := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			resp = append(resp, CategoryResponse{ID: cat.ID, Name: cat.Name})
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// PUT /api/product-categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "name zorunlu")
		}

		var category models.ProductCategory
		if err := database.DB.First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		before := category
		category.Name = body.Name

		if err := database.DB.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product_category",
				EntityID:    category.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Kategori güncellendi: %s", category.Name),
				Before:      before,
				After:       category,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    CategoryResponse{ID: category.ID, Name: category.Name},
		})
	}
}

// DELETE /api/product-categories/:id - ürünü olan kategori silinemez
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var category models.ProductCategory
		if err := database.DB.First(&category, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var productCount int64
		database.DB.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
		if productCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Ürünü olan kategori silinemez")
		}

		if err := database.DB.Delete(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "product_category",
				EntityID:    category.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Kategori silindi: %s", category.Name),
				Before:      category,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Kategori silindi"})
	}
}
