package dashboard

import (
	"time"

	"smartdrink-backend/internal/credit"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/deposit"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SummaryResponse struct {
	Date          string               `json:"date"`
	TodaySales    TodaySales           `json:"today_sales"`
	Credit        credit.Summary       `json:"credit"`
	Deposits      deposit.StatsSummary `json:"deposits"`
	LowStockCount int64                `json:"low_stock_count"`
}

type TodaySales struct {
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
	Nakit    float64 `json:"nakit"`
	Kart     float64 `json:"kart"`
	Veresiye float64 `json:"veresiye"`
}

// GET /api/dashboard/summary - ana ekran kartları tek uçtan
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		resp := SummaryResponse{
			Date:     now.Format("2006-01-02"),
			Credit:   credit.Summarize(database.DB, now),
			Deposits: deposit.Stats(database.DB),
		}

		var sales []models.Sale
		if err := database.DB.
			Where("created_at >= ?", dayStart).
			Find(&sales).Error; err == nil {
			for _, s := range sales {
				resp.TodaySales.Count++
				resp.TodaySales.Total += s.TotalAmount
				switch s.PaymentMethod {
				case models.PaymentNakit:
					resp.TodaySales.Nakit += s.TotalAmount
				case models.PaymentKart:
					resp.TodaySales.Kart += s.TotalAmount
				case models.PaymentVeresiye:
					resp.TodaySales.Veresiye += s.TotalAmount
				}
			}
		}

		database.DB.Model(&models.Product{}).
			Where("is_active = ? AND alert_level > 0 AND stock_quantity <= alert_level", true).
			Count(&resp.LowStockCount)

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}
