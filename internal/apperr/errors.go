// Package apperr servis katmanının hata sınıflarını tanımlar. Handler'lar
// bu tipleri HTTP durum kodlarına çevirir; servisler fiber'dan habersizdir.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError - Eksik/bozuk girdi (alan bazlı). 422 ile döner.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BusinessRuleError - Girdi düzgün ama bir defter kuralını ihlal ediyor.
// Current, UI'ın ikinci bir istek atmadan ekranı tazeleyebilmesi için
// güncel otoriter değerleri taşır (ör: kalan bakiye). 400 ile döner.
type BusinessRuleError struct {
	Message string
	Current map[string]interface{}
}

func (e *BusinessRuleError) Error() string { return e.Message }

func BusinessRule(message string) *BusinessRuleError {
	return &BusinessRuleError{Message: message}
}

func BusinessRuleWith(message string, current map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Message: message, Current: current}
}

// NotFoundError - Referans verilen kayıt yok. 404 ile döner.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " bulunamadı" }

func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// ErrVoidWindowExpired - 24 saatlik geri alma penceresi kapandı. Arayüz
// sözleşmesi gereği 403 ile döner, diğer kural ihlallerinden ayrılır.
var ErrVoidWindowExpired = errors.New("ödeme geri alınamayacak kadar eski")

// Respond - Servis hatasını cevaba çevir. Otoriter değer taşıyan kural
// ihlalleri `errors` alanıyla döner, UI ikinci istek atmadan ekranı
// tazeleyebilir; kalanı ToFiber'a düşer.
func Respond(c *fiber.Ctx, err error) error {
	var be *BusinessRuleError
	if errors.As(err, &be) && be.Current != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": be.Message,
			"errors":  be.Current,
		})
	}
	return ToFiber(err)
}

// ToFiber - Servis hatasını fiber hatasına çevir. Bilinmeyen hatalar 500
// olarak yukarı çıkar; transaction zaten geri alınmıştır.
func ToFiber(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, ve.Error())
	}
	var be *BusinessRuleError
	if errors.As(err, &be) {
		return fiber.NewError(fiber.StatusBadRequest, be.Message)
	}
	var ne *NotFoundError
	if errors.As(err, &ne) {
		return fiber.NewError(fiber.StatusNotFound, ne.Error())
	}
	if errors.Is(err, ErrVoidWindowExpired) {
		return fiber.NewError(fiber.StatusForbidden, ErrVoidWindowExpired.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
}
