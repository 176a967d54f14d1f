package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/servitec-pro/internal/application/dto"
	"github.com/tu-usuario/servitec-pro/internal/domain"
)

// errorResponse traduce la taxonomía de errores del dominio a HTTP. Todos los
// handlers mutadores pasan por aquí para que código y estatus sean uniformes.
func errorResponse(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		lines := make([]dto.ErrorLine, 0, len(insufficient.Lines))
		for _, l := range insufficient.Lines {
			lines = append(lines, dto.ErrorLine{
				ItemID:    l.ItemID,
				Location:  l.Location,
				Requested: l.Requested,
				Available: l.Available,
			})
		}
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente", Lines: lines,
		})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "solicitud o recurso no encontrado"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrAwaitingSalesApproval):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "AWAITING_SALES_APPROVAL", Message: "pendiente de aprobación de ventas"})
	case errors.Is(err, domain.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "PERMISSION_DENIED", Message: "el rol no permite esta operación"})
	case errors.Is(err, domain.ErrIneligibleTechnician):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INELIGIBLE_TECHNICIAN", Message: err.Error()})
	case errors.Is(err, domain.ErrNoOpReassignment):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NOOP_REASSIGNMENT", Message: "el técnico ya está asignado a la solicitud"})
	case errors.Is(err, domain.ErrSessionAlreadyOpen):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SESSION_ALREADY_OPEN", Message: "ya existe una sesión abierta"})
	case errors.Is(err, domain.ErrNoOpenSession):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_OPEN_SESSION", Message: "no hay sesión abierta"})
	case errors.Is(err, domain.ErrClockSkew):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CLOCK_SKEW", Message: "duración de sesión no positiva"})
	case errors.Is(err, domain.ErrDuplicateLineItem):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "DUPLICATE_LINE_ITEM", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT_RETRY", Message: "conflicto de concurrencia, reintentar tras releer"})
	case errors.Is(err, domain.ErrOperationTimeout), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación excedió el tiempo límite, es seguro reintentar"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
