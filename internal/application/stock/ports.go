package stock

import (
	"context"

	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios del libro de stock atados a esa tx. Todo consumo o traslado es
// una unidad atómica: o se aplican todas las líneas o ninguna.
type TxRunner interface {
	RunStock(ctx context.Context, fn func(
		reqRepo repository.ServiceRequestRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// Caller identifica al actor de una operación de stock (extraído del JWT).
type Caller struct {
	UserID       string
	Role         string
	TechnicianID string
}
