package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Razones de movimiento de stock.
const (
	MovementReasonUsedInService = "USED_IN_SERVICE"
	MovementReasonTransfer      = "TRANSFER"
)

// StockMovement es una entrada inmutable del libro de inventario.
// Destination vacío significa consumo puro (el stock sale del sistema);
// en un traslado Source y Destination van ambos poblados y el total se conserva.
type StockMovement struct {
	ID          string
	ItemID      string
	ItemKind    string
	Quantity    decimal.Decimal // cantidad movida o consumida, siempre positiva
	Source      string          // WAREHOUSE o technicianID
	Destination string          // vacío en consumo
	Reason      string          // USED_IN_SERVICE, TRANSFER
	RequestID   string          // solicitud que originó el movimiento; vacío en traslados sueltos
	ActorID     string
	CreatedAt   time.Time
}
