package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación append-only del libro de movimientos (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste una entrada del libro.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO stock_movements (id, item_id, item_kind, quantity, source, destination, reason, request_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ItemID, movement.ItemKind, movement.Quantity,
		movement.Source, nullable(movement.Destination), movement.Reason,
		nullable(movement.RequestID), movement.ActorID, movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// List devuelve movimientos filtrados por ítem, ubicación (origen o destino) y/o solicitud.
func (r *StockMovementRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, item_id, item_kind, quantity, source, destination, reason, request_id, actor_id, created_at
		FROM stock_movements WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.ItemID != "" {
		query += fmt.Sprintf(" AND item_id = $%d", pos)
		args = append(args, filter.ItemID)
		pos++
	}
	if filter.Location != "" {
		query += fmt.Sprintf(" AND (source = $%d OR destination = $%d)", pos, pos)
		args = append(args, filter.Location)
		pos++
	}
	if filter.RequestID != "" {
		query += fmt.Sprintf(" AND request_id = $%d", pos)
		args = append(args, filter.RequestID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var destination, requestID *string
		if err := rows.Scan(&m.ID, &m.ItemID, &m.ItemKind, &m.Quantity, &m.Source,
			&destination, &m.Reason, &requestID, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if destination != nil {
			m.Destination = *destination
		}
		if requestID != nil {
			m.RequestID = *requestID
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
