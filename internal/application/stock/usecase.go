package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// LedgerUseCase ejecuta consumos y traslados sobre el libro de stock de dos
// niveles (bodega central e inventarios de campo por técnico), de forma
// transaccional con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type LedgerUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	movRepo   repository.StockMovementRepository
}

// NewLedgerUseCase construye el caso de uso. stockRepo/movRepo se usan para
// lecturas; las mutaciones corren sobre repos atados a la tx del TxRunner.
func NewLedgerUseCase(txRunner TxRunner, stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) *LedgerUseCase {
	return &LedgerUseCase{txRunner: txRunner, stockRepo: stockRepo, movRepo: movRepo}
}

// ConsumeLine una línea del lote de consumo.
type ConsumeLine struct {
	ItemID   string
	ItemKind string
	Quantity decimal.Decimal
	Source   string // WAREHOUSE o technicianID
}

// Consume descuenta el lote completo contra los saldos de origen y registra un
// movimiento por línea con destino vacío (consumido, no trasladado), ligado a la
// solicitud. El lote es todo-o-nada: si alguna línea no tiene saldo, se rechaza
// entero con el detalle de las líneas fallidas y ningún saldo cambia.
func (uc *LedgerUseCase) Consume(ctx context.Context, caller Caller, requestID string, lines []ConsumeLine) ([]*entity.StockMovement, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ItemID == "" || l.Source == "" || !entity.ValidItemKind(l.ItemKind) {
			return nil, domain.ErrInvalidInput
		}
		// Cantidades enteras y positivas (unidades de consumibles, no fracciones).
		if !l.Quantity.IsInteger() || !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		key := l.ItemID + "|" + l.ItemKind + "|" + l.Source
		if seen[key] {
			return nil, fmt.Errorf("%w: %s en %s", domain.ErrDuplicateLineItem, l.ItemID, l.Source)
		}
		seen[key] = true
	}
	// Orden determinista de bloqueo para evitar deadlocks entre lotes concurrentes.
	ordered := make([]ConsumeLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].ItemID != ordered[j].ItemID {
			return ordered[i].ItemID < ordered[j].ItemID
		}
		if ordered[i].ItemKind != ordered[j].ItemKind {
			return ordered[i].ItemKind < ordered[j].ItemKind
		}
		return ordered[i].Source < ordered[j].Source
	})

	var movements []*entity.StockMovement
	err := uc.txRunner.RunStock(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		// El consumo representa trabajo ejecutado en campo: solo con la solicitud
		// IN_PROGRESS o WORK_COMPLETED.
		if req.Status != entity.StatusInProgress && req.Status != entity.StatusWorkCompleted {
			return fmt.Errorf("%w: consumo con solicitud en %s", domain.ErrInvalidTransition, req.Status)
		}
		if caller.Role != entity.RoleAdmin && (caller.TechnicianID == "" || caller.TechnicianID != req.TechnicianID) {
			return domain.ErrPermissionDenied
		}

		// Fase 1: bloquear todas las filas y validar saldos.
		balances := make([]*entity.StockBalance, len(ordered))
		var failed []domain.InsufficientLine
		for i, l := range ordered {
			bal, err := stockRepo.GetForUpdate(l.ItemID, l.ItemKind, l.Source)
			if err != nil {
				return err
			}
			if bal.Quantity.LessThan(l.Quantity) {
				failed = append(failed, domain.InsufficientLine{
					ItemID:    l.ItemID,
					Location:  l.Source,
					Requested: l.Quantity.String(),
					Available: bal.Quantity.String(),
				})
			}
			balances[i] = bal
		}
		if len(failed) > 0 {
			return &domain.InsufficientStockError{Lines: failed}
		}

		// Fase 2: aplicar descuentos y registrar movimientos.
		for i, l := range ordered {
			bal := balances[i]
			bal.Quantity = bal.Quantity.Sub(l.Quantity)
			if err := stockRepo.Upsert(bal); err != nil {
				return err
			}
			mov := &entity.StockMovement{
				ID:        uuid.New().String(),
				ItemID:    l.ItemID,
				ItemKind:  l.ItemKind,
				Quantity:  l.Quantity,
				Source:    l.Source,
				Reason:    entity.MovementReasonUsedInService,
				RequestID: req.ID,
				ActorID:   caller.UserID,
			}
			if err := movRepo.Create(mov); err != nil {
				return err
			}
			movements = append(movements, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// TransferInput datos de un traslado bodega↔técnico.
type TransferInput struct {
	ItemID   string
	ItemKind string
	Quantity decimal.Decimal
	From     string
	To       string
}

// Transfer mueve stock entre dos ubicaciones conservando el total: resta en
// origen, suma en destino y registra un único movimiento con ambas pobladas.
func (uc *LedgerUseCase) Transfer(ctx context.Context, caller Caller, input TransferInput) (*entity.StockMovement, error) {
	if !entity.CanTransferStock(caller.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if input.ItemID == "" || input.From == "" || input.To == "" || input.From == input.To {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidItemKind(input.ItemKind) {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.IsInteger() || !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	var movement *entity.StockMovement
	err := uc.txRunner.RunStock(ctx, func(
		_ repository.ServiceRequestRepository,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Las dos filas se bloquean en orden lexicográfico de ubicación, igual que
		// el lote de consumo: traslados cruzados A→B y B→A no se abrazan.
		first, second := input.From, input.To
		if second < first {
			first, second = second, first
		}
		firstBal, err := stockRepo.GetForUpdate(input.ItemID, input.ItemKind, first)
		if err != nil {
			return err
		}
		secondBal, err := stockRepo.GetForUpdate(input.ItemID, input.ItemKind, second)
		if err != nil {
			return err
		}
		origin, dest := firstBal, secondBal
		if origin.Location != input.From {
			origin, dest = secondBal, firstBal
		}
		if origin.Quantity.LessThan(input.Quantity) {
			return &domain.InsufficientStockError{Lines: []domain.InsufficientLine{{
				ItemID:    input.ItemID,
				Location:  input.From,
				Requested: input.Quantity.String(),
				Available: origin.Quantity.String(),
			}}}
		}
		// Resta en origen y suma en destino, misma transacción.
		origin.Quantity = origin.Quantity.Sub(input.Quantity)
		dest.Quantity = dest.Quantity.Add(input.Quantity)
		if err := stockRepo.Upsert(origin); err != nil {
			return err
		}
		if err := stockRepo.Upsert(dest); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			ItemID:      input.ItemID,
			ItemKind:    input.ItemKind,
			Quantity:    input.Quantity,
			Source:      input.From,
			Destination: input.To,
			Reason:      entity.MovementReasonTransfer,
			ActorID:     caller.UserID,
		}
		if err := movRepo.Create(mov); err != nil {
			return err
		}
		movement = mov
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// Balances devuelve los saldos de una ubicación (lectura, sin transacción).
func (uc *LedgerUseCase) Balances(ctx context.Context, location string) ([]*entity.StockBalance, error) {
	if location == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.ListByLocation(location)
}

// Movements devuelve movimientos del libro filtrados (lectura, sin transacción).
func (uc *LedgerUseCase) Movements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	return uc.movRepo.List(filter)
}
