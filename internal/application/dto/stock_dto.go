package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
)

// ConsumeLineRequest una línea del body de POST /api/requests/:id/stock/consume.
type ConsumeLineRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid4"`
	ItemKind string          `json:"item_kind" validate:"required,oneof=PRODUCT SPARE_PART"`
	Quantity decimal.Decimal `json:"quantity"`
	Source   string          `json:"source" validate:"required"` // WAREHOUSE o technicianID
}

// ConsumeStockRequest body completo del consumo.
type ConsumeStockRequest struct {
	Items []ConsumeLineRequest `json:"items" validate:"required,min=1,dive"`
}

// TransferStockRequest body para POST /api/stock/transfers.
type TransferStockRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid4"`
	ItemKind string          `json:"item_kind" validate:"required,oneof=PRODUCT SPARE_PART"`
	Quantity decimal.Decimal `json:"quantity"`
	From     string          `json:"from" validate:"required"`
	To       string          `json:"to" validate:"required"`
}

// StockMovementDTO entrada del libro de movimientos.
type StockMovementDTO struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id"`
	ItemKind    string          `json:"item_kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	Source      string          `json:"source"`
	Destination string          `json:"destination,omitempty"`
	Reason      string          `json:"reason"`
	RequestID   string          `json:"request_id,omitempty"`
	ActorID     string          `json:"actor_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FromMovement mapea la entidad a DTO.
func FromMovement(m *entity.StockMovement) StockMovementDTO {
	return StockMovementDTO{
		ID:          m.ID,
		ItemID:      m.ItemID,
		ItemKind:    m.ItemKind,
		Quantity:    m.Quantity,
		Source:      m.Source,
		Destination: m.Destination,
		Reason:      m.Reason,
		RequestID:   m.RequestID,
		ActorID:     m.ActorID,
		CreatedAt:   m.CreatedAt,
	}
}

// StockBalanceDTO saldo materializado de un ítem en una ubicación.
type StockBalanceDTO struct {
	ItemID    string          `json:"item_id"`
	ItemKind  string          `json:"item_kind"`
	Location  string          `json:"location"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromBalance mapea la entidad a DTO.
func FromBalance(b *entity.StockBalance) StockBalanceDTO {
	return StockBalanceDTO{
		ItemID:    b.ItemID,
		ItemKind:  b.ItemKind,
		Location:  b.Location,
		Quantity:  b.Quantity,
		UpdatedAt: b.UpdatedAt,
	}
}
