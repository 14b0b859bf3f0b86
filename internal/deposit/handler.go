package deposit

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

type IssueDepositRequest struct {
	CustomerID    *uint   `json:"customer_id"` // outgoing için
	SupplierID    *uint   `json:"supplier_id"` // incoming için
	DepositTypeID uint    `json:"deposit_type_id"`
	Quantity      int     `json:"quantity"`
	UnitAmount    float64 `json:"unit_amount"`
	Note          string  `json:"note"`
}

type ProcessReturnRequest struct {
	Quantity      int     `json:"quantity"`
	GoodCondition int     `json:"good_condition"`
	Damaged       int     `json:"damaged"`
	Lost          int     `json:"lost"`
	DamagePenalty float64 `json:"damage_penalty"`
	DelayPenalty  float64 `json:"delay_penalty"`
	Note          string  `json:"note"`
}

type DepositResponse struct {
	ID               uint    `json:"id"`
	Reference        string  `json:"reference"`
	Direction        string  `json:"direction"`
	CustomerID       *uint   `json:"customer_id,omitempty"`
	SupplierID       *uint   `json:"supplier_id,omitempty"`
	DepositTypeID    uint    `json:"deposit_type_id"`
	DepositTypeName  string  `json:"deposit_type_name,omitempty"`
	Quantity         int     `json:"quantity"`
	UnitAmount       float64 `json:"unit_amount"`
	TotalAmount      float64 `json:"total_amount"`
	QuantityReturned int     `json:"quantity_returned"`
	QuantityPending  int     `json:"quantity_pending"`
	Status           string  `json:"status"`
	Note             string  `json:"note,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

type DepositReturnResponse struct {
	ID            uint    `json:"id"`
	Reference     string  `json:"reference"`
	DepositID     uint    `json:"deposit_id"`
	Quantity      int     `json:"quantity"`
	GoodCondition int     `json:"good_condition"`
	Damaged       int     `json:"damaged"`
	Lost          int     `json:"lost"`
	RefundAmount  float64 `json:"refund_amount"`
	DamagePenalty float64 `json:"damage_penalty"`
	DelayPenalty  float64 `json:"delay_penalty"`
	TotalPenalty  float64 `json:"total_penalty"`
	NetRefund     float64 `json:"net_refund"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func depositResponse(d *models.Deposit) DepositResponse {
	resp := DepositResponse{
		ID:               d.ID,
		Reference:        d.Reference,
		Direction:        string(d.Direction),
		CustomerID:       d.CustomerID,
		SupplierID:       d.SupplierID,
		DepositTypeID:    d.DepositTypeID,
		DepositTypeName:  d.DepositType.Name,
		Quantity:         d.Quantity,
		UnitAmount:       d.UnitAmount,
		TotalAmount:      d.TotalAmount,
		QuantityReturned: d.QuantityReturned,
		QuantityPending:  d.QuantityPending,
		Status:           string(d.Status),
		Note:             d.Note,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	return resp
}

func returnResponse(r *models.DepositReturn) DepositReturnResponse {
	return DepositReturnResponse{
		ID:            r.ID,
		Reference:     r.Reference,
		DepositID:     r.DepositID,
		Quantity:      r.Quantity,
		GoodCondition: r.GoodCondition,
		Damaged:       r.Damaged,
		Lost:          r.Lost,
		RefundAmount:  r.RefundAmount,
		DamagePenalty: r.DamagePenalty,
		DelayPenalty:  r.DelayPenalty,
		TotalPenalty:  r.TotalPenalty,
		NetRefund:     r.NetRefund,
		Note:          r.Note,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
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
// Depozito İşlemleri
// -------------------------

// POST /api/deposits/outgoing
func IssueOutgoingHandler() fiber.Handler {
	return issueHandler(models.DepositOutgoing)
}

// POST /api/deposits/incoming
func IssueIncomingHandler() fiber.Handler {
	return issueHandler(models.DepositIncoming)
}

func issueHandler(direction models.DepositDirection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body IssueDepositRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		dep, err := Issue(database.DB, IssueInput{
			Direction:     direction,
			CustomerID:    body.CustomerID,
			SupplierID:    body.SupplierID,
			DepositTypeID: body.DepositTypeID,
			Quantity:      body.Quantity,
			UnitAmount:    body.UnitAmount,
			Note:          body.Note,
			CreatedBy:     userID,
		})
		if err != nil {
			return apperr.Respond(c, err)
		}

		label := "Müşteriye depozito verildi"
		if direction == models.DepositIncoming {
			label = "Tedarikçiden depozito alındı"
		}
		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "deposit",
			EntityID:    dep.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("%s: %s, %d adet, %.2f TL", label, dep.Reference, dep.Quantity, dep.TotalAmount),
			Before:      nil,
			After:       dep,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    depositResponse(dep),
		})
	}
}

// POST /api/deposits/:id/returns
func ProcessReturnHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		depositID, err := c.ParamsInt("id")
		if err != nil || depositID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		var body ProcessReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		ret, dep, err := ProcessReturn(database.DB, uint(depositID), ReturnInput{
			Quantity:      body.Quantity,
			GoodCondition: body.GoodCondition,
			Damaged:       body.Damaged,
			Lost:          body.Lost,
			DamagePenalty: body.DamagePenalty,
			DelayPenalty:  body.DelayPenalty,
			Note:          body.Note,
			ProcessedBy:   userID,
		})
		if err != nil {
			return apperr.Respond(c, err)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "deposit_return",
			EntityID:    ret.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Depozito iadesi: %s, %d adet, net iade %.2f TL", ret.Reference, ret.Quantity, ret.NetRefund),
			Before:      nil,
			After:       ret,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"return":  returnResponse(ret),
				"deposit": depositResponse(dep),
			},
		})
	}
}

// POST /api/deposits/:id/write-off
func WriteOffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		depositID, err := c.ParamsInt("id")
		if err != nil || depositID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		dep, err := WriteOff(database.DB, uint(depositID))
		if err != nil {
			return apperr.Respond(c, err)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "deposit",
			EntityID:    dep.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Depozito kayıttan düşüldü: %s, bekleyen %d adet", dep.Reference, dep.QuantityPending),
			Before:      nil,
			After:       dep,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "data": depositResponse(dep)})
	}
}

// DELETE /api/deposits/:id
func DeleteDepositHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		depositID, err := c.ParamsInt("id")
		if err != nil || depositID < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "id geçersiz")
		}

		userID, userName, uErr := getUserInfo(c)

		var dep models.Deposit
		if err := database.DB.First(&dep, "id = ?", depositID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Depozito bulunamadı")
		}

		if err := Delete(database.DB, uint(depositID)); err != nil {
			return apperr.Respond(c, err)
		}

		if uErr == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "deposit",
				EntityID:    dep.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Depozito silindi: %s, %.2f TL", dep.Reference, dep.TotalAmount),
				Before:      dep,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(fiber.Map{"success": true, "message": "Depozito silindi"})
	}
}

// GET /api/deposits?direction=outgoing&status=active&customer_id=1&supplier_id=2
func ListDepositsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Deposit{}).Preload("DepositType")

		if dir := c.Query("direction"); dir != "" {
			if dir != string(models.DepositOutgoing) && dir != string(models.DepositIncoming) {
				return fiber.NewError(fiber.StatusBadRequest, "direction 'outgoing' veya 'incoming' olmalı")
			}
			dbq = dbq.Where("direction = ?", dir)
		}
		if st := c.Query("status"); st != "" {
			dbq = dbq.Where("status = ?", st)
		}
		if cid := c.QueryInt("customer_id"); cid > 0 {
			dbq = dbq.Where("customer_id = ?", cid)
		}
		if sid := c.QueryInt("supplier_id"); sid > 0 {
			dbq = dbq.Where("supplier_id = ?", sid)
		}

		var deposits []models.Deposit
		if err := dbq.Order("created_at desc, id desc").Find(&deposits).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Depozitolar listelenemedi")
		}

		resp := make([]DepositResponse, 0, len(deposits))
		for i := range deposits {
			resp = append(resp, depositResponse(&deposits[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/deposits/:id
func GetDepositHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var dep models.Deposit
		if err := database.DB.Preload("DepositType").First(&dep, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Depozito bulunamadı")
		}

		return c.JSON(fiber.Map{"success": true, "data": depositResponse(&dep)})
	}
}

// GET /api/deposits/:id/returns
func ListDepositReturnsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var dep models.Deposit
		if err := database.DB.First(&dep, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Depozito bulunamadı")
		}

		var returns []models.DepositReturn
		if err := database.DB.Where("deposit_id = ?", dep.ID).
			Order("created_at desc, id desc").
			Find(&returns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İadeler listelenemedi")
		}

		resp := make([]DepositReturnResponse, 0, len(returns))
		for i := range returns {
			resp = append(resp, returnResponse(&returns[i]))
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// GET /api/deposits/stats
// Danışma amaçlı gösterge; hata durumunda sıfırlarla döner, 200 dışında
// kod üretmez.
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": Stats(database.DB)})
	}
}
