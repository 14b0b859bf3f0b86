package contact

import (
	"fmt"
	"strings"

	"smartdrink-backend/internal/audit"
	"smartdrink-backend/internal/auth"
	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateCustomerRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

type CustomerResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// CustomerDetailResponse - müşteri kartı + anlık bakiyeler. Bakiyeler
// kayıtlardan hesaplanır, müşteri üstünde tutulmaz.
type CustomerDetailResponse struct {
	CustomerResponse
	CreditOutstanding   float64 `json:"credit_outstanding"`
	OpenCreditSales     int64   `json:"open_credit_sales"`
	DepositUnitsPending int64   `json:"deposit_units_pending"`
	DepositAmountHeld   float64 `json:"deposit_amount_held"`
}

func customerResponse(cu *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        cu.ID,
		Name:      cu.Name,
		Phone:     cu.Phone,
		Address:   cu.Address,
		IsActive:  cu.IsActive,
		CreatedAt: cu.CreatedAt.Format("2006-01-02 15:04:05"),
	}
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
// Müşteri CRUD
// -------------------------

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "name zorunlu")
		}

		customer := models.Customer{
			Name:     body.Name,
			Phone:    strings.TrimSpace(body.Phone),
			Address:  strings.TrimSpace(body.Address),
			IsActive: true,
		}

		if err := database.DB.Create(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri kaydedilemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    customer.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Müşteri eklendi: %s", customer.Name),
				Before:      nil,
				After:       customer,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    customerResponse(&customer),
		})
	}
}

// GET /api/customers?q=ahmet&active=true
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{})

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR phone LIKE ?", like, like)
		}
		if active := c.Query("active"); active == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		resp := make([]CustomerResponse, 0, len(customers))
		for i := range customers {
			resp = append(resp, customerResponse(&customers[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/customers/:id - kart + açık veresiye ve bekleyen depozito
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		detail := CustomerDetailResponse{CustomerResponse: customerResponse(&customer)}

		var sales []models.Sale
		if err := database.DB.
			Where("customer_id = ? AND payment_method = ?", customer.ID, models.PaymentVeresiye).
			Find(&sales).Error; err == nil {
			for i := range sales {
				remaining := sales[i].Remaining()
				if remaining > 0 {
					detail.OpenCreditSales++
					detail.CreditOutstanding += remaining
				}
			}
		}

		var deposits []models.Deposit
		if err := database.DB.
			Where("customer_id = ? AND direction = ?", customer.ID, models.DepositOutgoing).
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

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		before := customer

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusUnprocessableEntity, "name boş olamaz")
			}
			customer.Name = name
		}
		if body.Phone != nil {
			customer.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			customer.Address = strings.TrimSpace(*body.Address)
		}
		if body.IsActive != nil {
			customer.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    customer.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Müşteri güncellendi: %s", customer.Name),
				Before:      before,
				After:       customer,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": customerResponse(&customer)})
	}
}

// DELETE /api/customers/:id - satış veya depozito kaydı varsa silinemez
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var customer models.Customer
		if err := database.DB.First(&customer, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var saleCount int64
		database.DB.Model(&models.Sale{}).Where("customer_id = ?", customer.ID).Count(&saleCount)
		if saleCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış kaydı olan müşteri silinemez, pasife alın")
		}

		var depositCount int64
		database.DB.Model(&models.Deposit{}).Where("customer_id = ?", customer.ID).Count(&depositCount)
		if depositCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Depozito kaydı olan müşteri silinemez, pasife alın")
		}

		if err := database.DB.Delete(&customer).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "customer",
				EntityID:    customer.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Müşteri silindi: %s", customer.Name),
				Before:      customer,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Müşteri silindi"})
	}
}
