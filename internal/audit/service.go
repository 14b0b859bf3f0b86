package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"smartdrink-backend/internal/database"
	"smartdrink-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// PostgreSQL jsonb için boş string yerine "null" JSON string'i kullanmalıyız
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("audit log kaydedilemedi: %w", err)
	}

	return nil
}

// UndoLog - Bir audit log'u undo et. Sadece defter dışı kayıtlar geri
// alınabilir: depozito, iade ve tahsilat kayıtlarının kendi düzeltme
// akışları var (iade, void); bakiyelere buradan dokunulmaz.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log bulunamadı: %w", err)
	}

	// Zaten undo edilmiş mi?
	if log.IsUndone {
		return fmt.Errorf("bu işlem zaten geri alınmış")
	}

	if !undoable(log.EntityType) {
		return fmt.Errorf("bu kayıt türü buradan geri alınamaz, kendi düzeltme akışını kullan")
	}

	switch log.Action {
	case models.AuditActionCreate:
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("kayıt silinemedi: %w", err)
		}

	case models.AuditActionUpdate:
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("kayıt geri yüklenemedi: %w", err)
		}

	case models.AuditActionDelete:
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("kayıt geri oluşturulamadı: %w", err)
		}

	default:
		return fmt.Errorf("bu işlem türü geri alınamaz")
	}

	// Log'u işaretle
	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("log güncellenemedi: %w", err)
	}

	// Undo işlemi için yeni bir log oluştur
	undoLog := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Geri alındı: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("undo log kaydedilemedi: %w", err)
	}

	return nil
}

func undoable(entityType string) bool {
	switch entityType {
	case "cash_movement", "customer", "supplier":
		return true
	default:
		// deposit/deposit_return/credit_payment/sale/deposit_type:
		// bakiyeye veya stoğa bağlı, raw undo tutarsızlık yaratır
		return false
	}
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "cash_movement":
		return database.DB.Delete(&models.CashMovement{}, "id = ?", entityID).Error
	case "customer":
		return database.DB.Delete(&models.Customer{}, "id = ?", entityID).Error
	case "supplier":
		return database.DB.Delete(&models.Supplier{}, "id = ?", entityID).Error
	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "cash_movement":
		var movement models.CashMovement
		if err := json.Unmarshal([]byte(dataJSON), &movement); err != nil {
			return err
		}
		movement.ID = 0 // Yeni kayıt oluştur
		return database.DB.Create(&movement).Error

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		customer.ID = 0
		return database.DB.Create(&customer).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		supplier.ID = 0
		return database.DB.Create(&supplier).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "cash_movement":
		var movement models.CashMovement
		if err := json.Unmarshal([]byte(dataJSON), &movement); err != nil {
			return err
		}
		return database.DB.Model(&models.CashMovement{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"date":        movement.Date,
			"method":      movement.Method,
			"direction":   movement.Direction,
			"amount":      movement.Amount,
			"description": movement.Description,
		}).Error

	case "customer":
		var customer models.Customer
		if err := json.Unmarshal([]byte(dataJSON), &customer); err != nil {
			return err
		}
		return database.DB.Model(&models.Customer{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":      customer.Name,
			"phone":     customer.Phone,
			"address":   customer.Address,
			"is_active": customer.IsActive,
		}).Error

	case "supplier":
		var supplier models.Supplier
		if err := json.Unmarshal([]byte(dataJSON), &supplier); err != nil {
			return err
		}
		return database.DB.Model(&models.Supplier{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"name":        supplier.Name,
			"phone":       supplier.Phone,
			"address":     supplier.Address,
			"description": supplier.Description,
			"is_active":   supplier.IsActive,
		}).Error

	default:
		return fmt.Errorf("bilinmeyen entity tipi: %s", entityType)
	}
}
