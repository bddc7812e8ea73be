// FILE: internal/pkg/serverutils/error_handler_test.go
package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"oral-coach-be/internal/exam"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"session not found", exam.ErrSessionNotFound, 404, "Oral session not found or expired"},
		{"wrapped session not found", fmt.Errorf("load: %w", exam.ErrSessionNotFound), 404, "Oral session not found or expired"},
		{"ownership", exam.ErrSessionOwnership, 403, "Session belongs to another user"},
		{"no content", exam.ErrNoContent, 422, "No content available for the requested configuration"},
		{"generation failed", fmt.Errorf("%w: upstream timeout", exam.ErrGenerationFailed), 502, "Coach response generation failed"},
		{"fiber error passthrough", fiber.NewError(400, "field 'Language' failed on 'oneof'"), 400, "field 'Language' failed on 'oneof'"},
		{"unknown error", errors.New("database exploded"), 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nopLogger{})})
			app.Get("/boom", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ApiResponse
			assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantMessage, body.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Language string `validate:"required,oneof=FR EN"`
		Level    string `validate:"required,oneof=A B C"`
	}

	assert.NoError(t, ValidateRequest(req{Language: "FR", Level: "B"}))

	err := ValidateRequest(req{Language: "DE", Level: "B"})
	var fiberErr *fiber.Error
	if assert.ErrorAs(t, err, &fiberErr) {
		assert.Equal(t, 400, fiberErr.Code)
		assert.Contains(t, fiberErr.Message, "Language")
		assert.Contains(t, fiberErr.Message, "oneof")
	}
}
