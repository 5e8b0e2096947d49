// Package httperr переводит ошибки доменного слоя в HTTP-ответы
package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/negotiation"
	"github.com/rajivgeraev/unlisted-api/internal/store"
)

// Status возвращает HTTP-код для ошибки
func Status(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, directory.ErrInvalidISIN),
		errors.Is(err, directory.ErrEmptyName),
		errors.Is(err, negotiation.ErrInvalidParty):
		return fiber.StatusBadRequest
	case errors.Is(err, market.ErrForbidden),
		errors.Is(err, market.ErrOwnListing):
		return fiber.StatusForbidden
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, negotiation.ErrBidNotFound),
		errors.Is(err, directory.ErrCompanyNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, negotiation.ErrListingClosed),
		errors.Is(err, negotiation.ErrNoCounterOffer),
		errors.Is(err, negotiation.ErrNotPendingApproval),
		errors.Is(err, negotiation.ErrNegotiationOver),
		errors.Is(err, negotiation.ErrBidNotOpen):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond отправляет ошибку клиенту в формате {"error": "..."}.
// Внутренние ошибки логируются, клиент получает общее сообщение.
func Respond(c fiber.Ctx, log *zap.Logger, err error) error {
	status := Status(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error("Ошибка обработки запроса",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// BadRequest отвечает 400 с сообщением
func BadRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// ErrorHandler обработчик ошибок Fiber, возвращающий JSON вместо текста
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		return Respond(c, log, err)
	}
}
