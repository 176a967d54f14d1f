package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo de un ítem en una ubicación. Fila inexistente equivale a saldo cero.
func (r *StockRepo) Get(itemID, itemKind, location string) (*entity.StockBalance, error) {
	query := `
		SELECT item_id, item_kind, location, quantity, updated_at
		FROM stock_balances WHERE item_id = $1 AND item_kind = $2 AND location = $3`
	var b entity.StockBalance
	err := r.q.QueryRow(context.Background(), query, itemID, itemKind, location).Scan(
		&b.ItemID, &b.ItemKind, &b.Location, &b.Quantity, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ItemID: itemID, ItemKind: itemKind, Location: location, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &b, nil
}

// GetForUpdate obtiene el saldo y bloquea la fila para update (SELECT FOR UPDATE).
// FOR UPDATE solo bloquea filas existentes: un saldo aún no materializado no
// tendría fila que bloquear y dos transacciones concurrentes leerían ambas cero
// sin serializarse. Por eso primero se materializa la fila a cero; el INSERT
// concurrente pierde contra el ON CONFLICT y el SELECT posterior bloquea la
// misma fila en las dos transacciones.
func (r *StockRepo) GetForUpdate(itemID, itemKind, location string) (*entity.StockBalance, error) {
	ensure := `
		INSERT INTO stock_balances (item_id, item_kind, location, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (item_id, item_kind, location) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), ensure, itemID, itemKind, location); err != nil {
		return nil, fmt.Errorf("ensure stock balance: %w", err)
	}
	query := `
		SELECT item_id, item_kind, location, quantity, updated_at
		FROM stock_balances WHERE item_id = $1 AND item_kind = $2 AND location = $3
		FOR UPDATE`
	var b entity.StockBalance
	err := r.q.QueryRow(context.Background(), query, itemID, itemKind, location).Scan(
		&b.ItemID, &b.ItemKind, &b.Location, &b.Quantity, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{ItemID: itemID, ItemKind: itemKind, Location: location, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock balance for update: %w", err)
	}
	return &b, nil
}

// Upsert inserta o actualiza el saldo (por ítem, clase y ubicación). El CHECK
// quantity >= 0 de la tabla respalda el invariante de no-negatividad.
func (r *StockRepo) Upsert(balance *entity.StockBalance) error {
	query := `
		INSERT INTO stock_balances (item_id, item_kind, location, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (item_id, item_kind, location)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		balance.ItemID, balance.ItemKind, balance.Location, balance.Quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert stock balance: %w", err)
	}
	return nil
}

// ListByLocation lista los saldos de una ubicación (bodega o técnico).
func (r *StockRepo) ListByLocation(location string) ([]*entity.StockBalance, error) {
	query := `
		SELECT item_id, item_kind, location, quantity, updated_at
		FROM stock_balances WHERE location = $1 ORDER BY item_kind, item_id`
	rows, err := r.q.Query(context.Background(), query, location)
	if err != nil {
		return nil, fmt.Errorf("list stock balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(&b.ItemID, &b.ItemKind, &b.Location, &b.Quantity, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
