package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	applifecycle "github.com/tu-usuario/servitec-pro/internal/application/lifecycle"
	appstock "github.com/tu-usuario/servitec-pro/internal/application/stock"
	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// Ensure TxRunner implements lifecycle.TxRunner and stock.TxRunner.
var _ applifecycle.TxRunner = (*TxRunner)(nil)
var _ appstock.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con los repos del ciclo de vida atados a la tx y
// hace Commit o Rollback. Timeouts del contexto se traducen a ErrOperationTimeout:
// ninguna operación deja escrituras parciales, así que el caller puede reintentar.
func (r *TxRunner) Run(ctx context.Context, fn func(
	reqRepo repository.ServiceRequestRepository,
	apprRepo repository.ApprovalRepository,
	asgRepo repository.AssignmentRepository,
	sessRepo repository.WorkSessionRepository,
	techRepo repository.TechnicianRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return translateTxError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reqRepo := NewServiceRequestRepository(tx)
	apprRepo := NewApprovalRepository(tx)
	asgRepo := NewAssignmentRepository(tx)
	sessRepo := NewWorkSessionRepository(tx)
	techRepo := NewTechnicianRepository(tx)

	if err := fn(reqRepo, apprRepo, asgRepo, sessRepo, techRepo); err != nil {
		return translateTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// RunStock inicia una transacción con los repos del libro de stock (para Consume/Transfer).
func (r *TxRunner) RunStock(ctx context.Context, fn func(
	reqRepo repository.ServiceRequestRepository,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return translateTxError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reqRepo := NewServiceRequestRepository(tx)
	stockRepo := NewStockRepository(tx)
	movRepo := NewStockMovementRepository(tx)

	if err := fn(reqRepo, stockRepo, movRepo); err != nil {
		return translateTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return translateTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// translateTxError mapea errores transversales de la tx a errores de dominio.
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrOperationTimeout, err)
	}
	if isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
	}
	return err
}
