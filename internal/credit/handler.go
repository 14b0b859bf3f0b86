package credit

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

type RecordPaymentRequest struct {
	SaleID      uint    `json:"sale_id"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`       // "nakit" veya "kart"
	PaymentDate string  `json:"payment_date"` // "2025-12-09", boşsa bugün
	Note        string  `json:"note"`
}

type CreditSaleResponse struct {
	ID          uint    `json:"id"`
	Reference   string  `json:"reference"`
	CustomerID  *uint   `json:"customer_id"`
	Customer    string  `json:"customer,omitempty"`
	TotalAmount float64 `json:"total_amount"`
	PaidAmount  float64 `json:"paid_amount"`
	Remaining   float64 `json:"remaining"`
	DueDate     *string `json:"due_date"`
	Status      string  `json:"status"` // unpaid | partial | paid | overdue
	CreatedAt   string  `json:"created_at"`
}

type CreditPaymentResponse struct {
	ID          uint    `json:"id"`
	SaleID      uint    `json:"sale_id"`
	Amount      float64 `json:"amount"`
	Method      string  `json:"method"`
	PaymentDate string  `json:"payment_date"`
	Note        string  `json:"note,omitempty"`
	IsVoided    bool    `json:"is_voided"`
	CanVoid     bool    `json:"can_void"`
	CreatedAt   string  `json:"created_at"`
}

func creditSaleResponse(s *models.Sale, now time.Time) CreditSaleResponse {
	resp := CreditSaleResponse{
		ID:          s.ID,
		Reference:   s.Reference,
		CustomerID:  s.CustomerID,
		TotalAmount: s.TotalAmount,
		PaidAmount:  s.PaidAmount,
		Remaining:   s.Remaining(),
		Status:      string(s.ComputedStatus(now)),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
	if s.Customer != nil {
		resp.Customer = s.Customer.Name
	}
	if s.DueDate != nil {
		formatted := s.DueDate.Format("2006-01-02")
		resp.DueDate = &formatted
	}
	return resp
}

func creditPaymentResponse(p *models.CreditPayment, now time.Time) CreditPaymentResponse {
	return CreditPaymentResponse{
		ID:          p.ID,
		SaleID:      p.SaleID,
		Amount:      p.Amount,
		Method:      string(p.Method),
		PaymentDate: p.PaymentDate.Format("2006-01-02"),
		Note:        p.Note,
		IsVoided:    p.IsVoided,
		CanVoid:     p.CanVoid(now),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// -------------------------
// Yardımcı: Kullanıcı bilgilerini al
// -------------------------
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
// Veresiye İşlemleri
// -------------------------

// GET /api/credits?status=overdue&customer_id=1
// Durum kolon olarak tutulmaz; tutarlar ve vade üzerinden burada
// hesaplanıp filtrelenir.
func ListCreditSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{}).
			Preload("Customer").
			Where("payment_method = ?", models.PaymentVeresiye)

		if cid := c.QueryInt("customer_id"); cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}

		var sales []models.Sale
		if err := dbq.Order("created_at desc, id desc").Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Veresiye satışlar listelenemedi")
		}

		now := time.Now()
		statusFilter := c.Query("status")
		if statusFilter != "" {
			switch models.SaleStatus(statusFilter) {
			case models.SaleUnpaid, models.SalePartial, models.SalePaid, models.SaleOverdue:
			default:
				return fiber.NewError(fiber.StatusBadRequest, "status 'unpaid', 'partial', 'paid' veya 'overdue' olmalı")
			}
		}

		resp := make([]CreditSaleResponse, 0, len(sales))
		for i := range sales {
			item := creditSaleResponse(&sales[i], now)
			if statusFilter != "" && item.Status != statusFilter {
				continue
			}
			resp = append(resp, item)
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// POST /api/credits/payments
func RecordPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		var paymentDate time.Time
		if body.PaymentDate != "" {
			paymentDate, err = time.Parse("2006-01-02", body.PaymentDate)
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		payment, sale, err := RecordPayment(database.DB, PaymentInput{
			SaleID:      body.SaleID,
			Amount:      body.Amount,
			Method:      models.PaymentMethod(body.Method),
			PaymentDate: paymentDate,
			Note:        body.Note,
			RecordedBy:  userID,
		})
		if err != nil {
			return apperr.Respond(c, err)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "credit_payment",
			EntityID:    payment.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Veresiye tahsilatı: %s için %.2f TL, kalan %.2f TL", sale.Reference, payment.Amount, sale.Remaining()),
			Before:      nil,
			After:       payment,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"payment":     creditPaymentResponse(payment, time.Now()),
				"paid_amount": sale.PaidAmount,
				"remaining":   sale.Remaining(),
			},
		})
	}
}

// GET /api/credits/payments?sale_id=1
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CreditPayment{})

		if sid := c.QueryInt("sale_id"); sid > 0 {
			dbq = dbq.Where("sale_id = ?", sid)
		}

		var payments []models.CreditPayment
		if err := dbq.Order("payment_date desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödemeler listelenemedi")
		}

		now := time.Now()
		resp := make([]CreditPaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, creditPaymentResponse(&payments[i], now))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// POST /api/credits/payments/:id/void
// Fiziksel silme yok: ödeme işaretlenir, satış bakiyesi geri düşülür.
func VoidPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		paymentID, err := c.ParamsInt("id")
		if err != nil || paymentID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		payment, sale, err := VoidPayment(database.DB, uint(paymentID), userID, time.Now())
		if err != nil {
			return apperr.Respond(c, err)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "credit_payment",
			EntityID:    payment.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Veresiye tahsilatı geri alındı: %.2f TL, yeni kalan %.2f TL", payment.Amount, sale.Remaining()),
			Before:      payment,
			After:       nil,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"paid_amount": sale.PaidAmount,
				"remaining":   sale.Remaining(),
			},
		})
	}
}

// GET /api/credits/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": Summarize(database.DB, time.Now())})
	}
}
