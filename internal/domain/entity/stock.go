package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clases de ítem consumible.
const (
	ItemKindProduct   = "PRODUCT"
	ItemKindSparePart = "SPARE_PART"
)

// LocationWarehouse es la ubicación centinela de la bodega central; cualquier
// otra ubicación es el ID de un técnico (inventario de campo).
const LocationWarehouse = "WAREHOUSE"

// ValidItemKind valida la clase de ítem recibida desde el exterior.
func ValidItemKind(k string) bool {
	return k == ItemKindProduct || k == ItemKindSparePart
}

// StockBalance es el saldo materializado de un ítem en una ubicación.
// El log de movimientos es la fuente de verdad; el saldo nunca es negativo.
type StockBalance struct {
	ItemID    string
	ItemKind  string // PRODUCT, SPARE_PART
	Location  string // WAREHOUSE o technicianID
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}
