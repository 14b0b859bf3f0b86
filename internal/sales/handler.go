package sales

import (
	"fmt"
	"time"

	"smartdrink-backend/internal/apperr"
	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/auth"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type SaleItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateSaleRequest struct {
	CustomerID    *uint             `json:"customer_id"`
	PaymentMethod string            `json:"payment_method"` // nakit / kart / veresiye
	DueDate       string            `json:"due_date"`       // veresiye için "2025-12-09"
	Note          string            `json:"note"`
	Items         []SaleItemRequest `json:"items"`
}

type SaleItemResponse struct {
	ProductID uint    `json:"product_id"`
	Product   string  `json:"product,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type SaleResponse struct {
	ID            uint               `json:"id"`
	Reference     string             `json:"reference"`
	CustomerID    *uint              `json:"customer_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	TotalAmount   float64            `json:"total_amount"`
	PaidAmount    float64            `json:"paid_amount"`
	Remaining     float64            `json:"remaining"`
	Status        string             `json:"status"`
	DueDate       *string            `json:"due_date,omitempty"`
	Note          string             `json:"note,omitempty"`
	Items         []SaleItemResponse `json:"items,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

func saleResponse(s *models.Sale, now time.Time) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID,
		Reference:     s.Reference,
		CustomerID:    s.CustomerID,
		PaymentMethod: string(s.PaymentMethod),
		TotalAmount:   s.TotalAmount,
		PaidAmount:    s.PaidAmount,
		Remaining:     s.Remaining(),
		Status:        string(s.ComputedStatus(now)),
		Note:          s.Note,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
	}
	if s.DueDate != nil {
		formatted := s.DueDate.Format("2006-01-02")
		resp.DueDate = &formatted
	}
	for i := range s.Items {
		item := SaleItemResponse{
			ProductID: s.Items[i].ProductID,
			Quantity:  s.Items[i].Quantity,
			UnitPrice: s.Items[i].UnitPrice,
			LineTotal: s.Items[i].LineTotal,
		}
		if s.Items[i].Product.ID != 0 {
			item.Product = s.Items[i].Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
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
// Satış İşlemleri
// -------------------------

// POST /api/sales
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var dueDate *time.Time
		if body.DueDate != "" {
			d, err := time.Parse("2006-01-02", body.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			dueDate = &d
		}

		items := make([]ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		sale, err := Create(database.DB, CreateInput{
			CustomerID:    body.CustomerID,
			PaymentMethod: models.PaymentMethod(body.PaymentMethod),
			DueDate:       dueDate,
			Note:          body.Note,
			Items:         items,
			SoldBy:        userID,
		})
		if err != nil {
			return apperr.Respond(c, err)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "sale",
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Satış: %s, %.2f TL (%s)", sale.Reference, sale.TotalAmount, sale.PaymentMethod),
			Before:      nil,
			After:       sale,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    saleResponse(sale, time.Now()),
		})
	}
}

// GET /api/sales?payment_method=veresiye&customer_id=1&from=2025-09-01&to=2025-09-30
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{})

		if pm := c.Query("payment_method"); pm != "" {
			dbq = dbq.Where("payment_method = ?", pm)
		}
		if cid := c.QueryInt("customer_id"); cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("created_at < ?", d.AddDate(0, 0, 1))
		}

		var sales []models.Sale
		if err := dbq.Order("created_at desc, id desc").Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		now := time.Now()
		resp := make([]SaleResponse, 0, len(sales))
		for i := range sales {
			resp = append(resp, saleResponse(&sales[i], now))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var sale models.Sale
		if err := database.DB.Preload("Items.Product").First(&sale, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		return c.JSON(fiber.Map{"success": true, "data": saleResponse(&sale, time.Now())})
	}
}
