package repository

import "github.com/tu-usuario/servitec-pro/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar saldos por
// ítem+clase+ubicación. Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(itemID, itemKind, location string) (*entity.StockBalance, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(itemID, itemKind, location string) (*entity.StockBalance, error)
	Upsert(balance *entity.StockBalance) error
	ListByLocation(location string) ([]*entity.StockBalance, error)
}

// MovementFilter filtros para listar movimientos del libro.
type MovementFilter struct {
	ItemID    string
	Location  string // coincide contra source o destination
	RequestID string
	Limit     int
	Offset    int
}

// StockMovementRepository puerto append-only del libro de movimientos.
// El libro es la fuente de verdad; los saldos son vista materializada.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	List(filter MovementFilter) ([]*entity.StockMovement, error)
}
