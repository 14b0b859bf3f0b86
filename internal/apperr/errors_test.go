package apperr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestToFiber_StatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", Validation("quantity", "en az 1 olmalı"), fiber.StatusUnprocessableEntity},
		{"business rule", BusinessRule("yetersiz stok"), fiber.StatusBadRequest},
		{"not found", NotFound("Depozito"), fiber.StatusNotFound},
		{"void window", ErrVoidWindowExpired, fiber.StatusForbidden},
		{"unknown", errors.New("db down"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fe, ok := ToFiber(tc.err).(*fiber.Error)
			require.True(t, ok)
			require.Equal(t, tc.code, fe.Code)
		})
	}
}

func TestRespond_CarriesCurrentValues(t *testing.T) {
	app := fiber.New()
	app.Post("/x", func(c *fiber.Ctx) error {
		return Respond(c, BusinessRuleWith("Ödeme kalan bakiyeyi aşıyor",
			map[string]interface{}{"remaining": 150.0}))
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Errors  map[string]interface{} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.False(t, body.Success)
	require.Equal(t, "Ödeme kalan bakiyeyi aşıyor", body.Message)
	require.Equal(t, 150.0, body.Errors["remaining"])
}

func TestRespond_PlainBusinessRuleFallsThrough(t *testing.T) {
	// Current olmadan Respond da ToFiber yoluna düşer
	err := Respond(nil, BusinessRule("yetersiz stok"))
	fe, ok := err.(*fiber.Error)
	require.True(t, ok)
	require.Equal(t, fiber.StatusBadRequest, fe.Code)
}
