package cashflow

import (
	"fmt"
	"time"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/auth"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateCashMovementRequest struct {
	Date        *string           `json:"date"` // "2026-01-15" formatında, boşsa bugün
	Method      models.CashMethod `json:"method"`
	Direction   string            `json:"direction"` // "in" | "out"
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
}

type CashMovementResponse struct {
	ID          uint              `json:"id"`
	Date        string            `json:"date"`
	Method      models.CashMethod `json:"method"`
	Direction   string            `json:"direction"`
	Amount      float64           `json:"amount"`
	Description string            `json:"description"`
	CreatedBy   uint              `json:"created_by"`
}

type MonthlySummaryItem struct {
	Method models.CashMethod `json:"method"`
	In     float64           `json:"in"`
	Out    float64           `json:"out"`
	Net    float64           `json:"net"`
}

type MonthlySummaryResponse struct {
	Year   int                  `json:"year"`
	Month  int                  `json:"month"`
	Items  []MonthlySummaryItem `json:"items"`
	NetSum float64              `json:"net_sum"`
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

func movementResponse(m *models.CashMovement) CashMovementResponse {
	return CashMovementResponse{
		ID:          m.ID,
		Date:        m.Date.Format("2006-01-02"),
		Method:      m.Method,
		Direction:   m.Direction,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
	}
}

// -------------------------
// Kasa Hareketleri
// -------------------------

// POST /api/cash-movements - manuel kasa girişi/çıkışı
func CreateCashMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCashMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Method != models.CashMethodNakit && body.Method != models.CashMethodKart {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "method nakit veya kart olmalı")
		}
		if body.Direction != "in" && body.Direction != "out" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "direction in veya out olmalı")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "amount pozitif olmalı")
		}

		date := time.Now()
		if body.Date != nil && *body.Date != "" {
			parsed, err := time.Parse("2006-01-02", *body.Date)
			if err != nil {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "date formatı geçersiz (YYYY-MM-DD)")
			}
			date = parsed
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		movement := models.CashMovement{
			Date:        date,
			Method:      body.Method,
			Direction:   body.Direction,
			Amount:      body.Amount,
			Description: body.Description,
			CreatedBy:   userID,
		}

		if err := database.DB.Create(&movement).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketi kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "cash_movement",
			EntityID:    movement.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Kasa hareketi: %s %s %.2f TL", movement.Method, movement.Direction, movement.Amount),
			After:       movement,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    movementResponse(&movement),
		})
	}
}

// GET /api/cash-movements?from=2026-01-01&to=2026-01-31&method=nakit&direction=in
func ListCashMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.CashMovement{})

		if from := c.Query("from"); from != "" {
			if parsed, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("date >= ?", parsed)
			}
		}
		if to := c.Query("to"); to != "" {
			if parsed, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("date < ?", parsed.AddDate(0, 0, 1))
			}
		}
		if method := c.Query("method"); method != "" {
			dbq = dbq.Where("method = ?", method)
		}
		if direction := c.Query("direction"); direction == "in" || direction == "out" {
			dbq = dbq.Where("direction = ?", direction)
		}

		var movements []models.CashMovement
		if err := dbq.Order("date DESC, id DESC").Limit(500).Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketleri listelenemedi")
		}

		resp := make([]CashMovementResponse, 0, len(movements))
		for i := range movements {
			resp = append(resp, movementResponse(&movements[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// DELETE /api/cash-movements/:id - yanlış giriş düzeltmesi, audit'ten geri alınabilir
func DeleteCashMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var movement models.CashMovement
		if err := database.DB.First(&movement, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kasa hareketi bulunamadı")
		}

		if err := database.DB.Delete(&movement).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kasa hareketi silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "cash_movement",
				EntityID:    movement.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Kasa hareketi silindi: %s %.2f TL", movement.Method, movement.Amount),
				Before:      movement,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Kasa hareketi silindi"})
	}
}

// GET /api/cash-movements/monthly-summary?year=2026&month=1
func MonthlySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))

		if month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "month 1-12 arası olmalı")
		}

		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		end := start.AddDate(0, 1, 0)

		var movements []models.CashMovement
		if err := database.DB.
			Where("date >= ? AND date < ?", start, end).
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		byMethod := map[models.CashMethod]*MonthlySummaryItem{}
		for _, m := range movements {
			item, ok := byMethod[m.Method]
			if !ok {
				item = &MonthlySummaryItem{Method: m.Method}
				byMethod[m.Method] = item
			}
			if m.Direction == "in" {
				item.In += m.Amount
			} else {
				item.Out += m.Amount
			}
		}

		resp := MonthlySummaryResponse{Year: year, Month: month, Items: []MonthlySummaryItem{}}
		for _, method := range []models.CashMethod{models.CashMethodNakit, models.CashMethodKart} {
			if item, ok := byMethod[method]; ok {
				item.Net = item.In - item.Out
				resp.Items = append(resp.Items, *item)
				resp.NetSum += item.Net
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}
