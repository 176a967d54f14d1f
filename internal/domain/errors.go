package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrPermissionDenied      = errors.New("el rol del usuario no permite esta operación")
	ErrAwaitingSalesApproval = errors.New("pendiente de aprobación de ventas")
	ErrIneligibleTechnician  = errors.New("técnico no elegible")
	ErrNoOpReassignment      = errors.New("el técnico ya está asignado a la solicitud")
	ErrSessionAlreadyOpen    = errors.New("ya existe una sesión de trabajo abierta para la solicitud")
	ErrNoOpenSession         = errors.New("no hay sesión de trabajo abierta para la solicitud")
	ErrClockSkew             = errors.New("duración de sesión no positiva (desfase de reloj)")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrDuplicateLineItem     = errors.New("línea duplicada en el lote de consumo")
	ErrConcurrencyConflict   = errors.New("conflicto de concurrencia: reintentar tras releer el estado")
	ErrOperationTimeout      = errors.New("la operación excedió el tiempo límite")
)

// InsufficientLine identifica una línea rechazada en un lote de consumo.
type InsufficientLine struct {
	ItemID    string
	Location  string
	Requested string // cantidad solicitada
	Available string // cantidad disponible al momento de la validación
}

// InsufficientStockError detalla qué líneas del lote no tienen saldo suficiente.
// Envuelve ErrInsufficientStock para que errors.Is siga funcionando.
type InsufficientStockError struct {
	Lines []InsufficientLine
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s@%s solicitado=%s disponible=%s", l.ItemID, l.Location, l.Requested, l.Available))
	}
	return "stock insuficiente: " + strings.Join(parts, "; ")
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
