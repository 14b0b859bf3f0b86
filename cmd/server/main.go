package main

import (
	"log"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/auth"
	"smartdrink-backend/internal/cashflow"
	"smartdrink-backend/internal/config"
	"smartdrink-backend/internal/contact"
	"smartdrink-backend/internal/credit"
	"smartdrink-backend/internal/dashboard"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/deposit"
	"smartdrink-backend/internal/inventory"
	"smartdrink-backend/internal/models"
	"smartdrink-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"success": false,
					"message": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only uçlar: grup prefix'i paylaşıldığı için rol kontrolü
	// route bazında takılır
	adminOnly := auth.RequireRole(models.RoleAdmin)

	// Kullanıcı yönetimi
	protected.Post("/users", adminOnly, auth.CreateUserHandler())

	// Ambalaj tipi yönetimi
	protected.Post("/deposit-types", adminOnly, deposit.CreateDepositTypeHandler())
	protected.Put("/deposit-types/:id", adminOnly, deposit.UpdateDepositTypeHandler())
	protected.Delete("/deposit-types/:id", adminOnly, deposit.DeleteDepositTypeHandler())

	// Ürün ve kategori yönetimi
	protected.Post("/product-categories", adminOnly, inventory.CreateCategoryHandler())
	protected.Put("/product-categories/:id", adminOnly, inventory.UpdateCategoryHandler())
	protected.Delete("/product-categories/:id", adminOnly, inventory.DeleteCategoryHandler())
	protected.Post("/products", adminOnly, inventory.CreateProductHandler())
	protected.Put("/products/:id", adminOnly, inventory.UpdateProductHandler())
	protected.Post("/products/:id/adjust-stock", adminOnly, inventory.AdjustStockHandler())
	protected.Delete("/products/:id", adminOnly, inventory.DeleteProductHandler())

	// Depozito hatalı giriş silme ve sayım düşümü
	protected.Delete("/deposits/:id", adminOnly, deposit.DeleteDepositHandler())
	protected.Post("/deposits/:id/write-off", adminOnly, deposit.WriteOffHandler())

	// Kasa hareketi silme ve audit geri alma
	protected.Delete("/cash-movements/:id", adminOnly, cashflow.DeleteCashMovementHandler())
	protected.Post("/audit-logs/:id/undo", adminOnly, audit.UndoAuditLogHandler())

	// Ortak (auth gerektiren) route'lar

	// Ürünler
	protected.Get("/product-categories", inventory.ListCategoriesHandler())
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())

	// Müşteri / tedarikçi kartları
	protected.Post("/customers", contact.CreateCustomerHandler())
	protected.Get("/customers", contact.ListCustomersHandler())
	protected.Get("/customers/:id", contact.GetCustomerHandler())
	protected.Put("/customers/:id", contact.UpdateCustomerHandler())
	protected.Delete("/customers/:id", contact.DeleteCustomerHandler())
	protected.Post("/suppliers", contact.CreateSupplierHandler())
	protected.Get("/suppliers", contact.ListSuppliersHandler())
	protected.Get("/suppliers/:id", contact.GetSupplierHandler())
	protected.Put("/suppliers/:id", contact.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", contact.DeleteSupplierHandler())

	// Satış
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())

	// Depozito defteri
	protected.Get("/deposit-types", deposit.ListDepositTypesHandler())
	protected.Post("/deposits/outgoing", deposit.IssueOutgoingHandler())
	protected.Post("/deposits/incoming", deposit.IssueIncomingHandler())
	protected.Get("/deposits", deposit.ListDepositsHandler())
	protected.Get("/deposits/stats", deposit.StatsHandler())
	protected.Get("/deposits/:id", deposit.GetDepositHandler())
	protected.Get("/deposits/:id/returns", deposit.ListDepositReturnsHandler())
	protected.Post("/deposits/:id/returns", deposit.ProcessReturnHandler())

	// Veresiye defteri
	protected.Get("/credits", credit.ListCreditSalesHandler())
	protected.Get("/credits/summary", credit.SummaryHandler())
	protected.Post("/credits/payments", credit.RecordPaymentHandler())
	protected.Get("/credits/payments", credit.ListPaymentsHandler())
	protected.Post("/credits/payments/:id/void", credit.VoidPaymentHandler())

	// Kasa hareketleri
	protected.Post("/cash-movements", cashflow.CreateCashMovementHandler())
	protected.Get("/cash-movements", cashflow.ListCashMovementsHandler())
	protected.Get("/cash-movements/summary/monthly", cashflow.MonthlySummaryHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
