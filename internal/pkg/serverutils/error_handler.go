// FILE: internal/pkg/serverutils/error_handler.go
package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"oral-coach-be/internal/exam"
	"oral-coach-be/internal/pkg/logger"
)

// ErrorHandler maps domain errors to HTTP statuses. Anything unmapped is
// a 500 and gets logged with its real cause; the client sees a generic
// message.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, exam.ErrSessionNotFound):
			code = fiber.StatusNotFound
			message = "Oral session not found or expired"
		case errors.Is(err, exam.ErrSessionOwnership):
			code = fiber.StatusForbidden
			message = "Session belongs to another user"
		case errors.Is(err, exam.ErrNoContent):
			code = fiber.StatusUnprocessableEntity
			message = "No content available for the requested configuration"
		case errors.Is(err, exam.ErrGenerationFailed):
			code = fiber.StatusBadGateway
			message = "Coach response generation failed"
		}

		if code >= 500 {
			log.Error("Http", "Unhandled request error", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(message))
	}
}
