package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/rebate-api/internal/application/dto"
	"github.com/jhoicas/rebate-api/internal/domain"
)

// Códigos de error devueltos en dto.ErrorResponse.
const (
	CodeValidation   = "VALIDATION"
	CodeInvalidBody  = "INVALID_BODY"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeMissingToken = "MISSING_TOKEN"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeForbidden    = "FORBIDDEN"
	CodeOrderLocked  = "ORDER_LOCKED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeDuplicate    = "DUPLICATE"
	CodeEmailExists  = "EMAIL_EXISTS"
	CodeInternal     = "INTERNAL"
)

// writeError traduce un error de dominio a status + {error, code}.
// Los errores no reconocidos se registran y se responden como 500 con mensaje genérico.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("request_id", c.Locals("requestid")).
			Msg("error interno")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, Code: code})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, CodeValidation, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, CodeUnauthorized, domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrOrderLocked):
		return fiber.StatusForbidden, CodeOrderLocked, domain.ErrOrderLocked.Error()
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, CodeForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, CodeNotFound, notFoundMessage(err)
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, CodeEmailExists, domain.ErrEmailAlreadyExists.Error()
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, CodeDuplicate, err.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusBadRequest, CodeConflict, err.Error()
	default:
		return fiber.StatusInternalServerError, CodeInternal, "error interno del servidor"
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrUserNotFound.Error()
	}
	return domain.ErrNotFound.Error()
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "cuerpo inválido", Code: CodeInvalidBody})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: strings.TrimSpace(msg), Code: CodeValidation})
}
