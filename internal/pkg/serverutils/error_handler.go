package serverutils

import (
	"errors"

	"lecture-rag-be/internal/pkg/logger"
	"lecture-rag-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps an error to the HTTP status the API answers with.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindProvider:
		return fiber.StatusBadGateway
	case apperror.KindStore:
		return fiber.StatusServiceUnavailable
	case apperror.KindDeadlineExceeded:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// MessageOf is the client-facing text of an error. Causes of upstream
// failures stay in the logs.
func MessageOf(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}

	var ae *apperror.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "internal server error"
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers as
// error envelopes.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusOf(err)
		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err.Error(),
			})
		}
		return ctx.Status(code).JSON(ErrorResponse(code, MessageOf(err)))
	}
}
