package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.ApprovalRepository = (*ApprovalRepo)(nil)

// ApprovalRepo implementación append-only sobre PostgreSQL (usable con pool o tx).
// No expone Update ni Delete: el historial de aprobaciones es inmutable.
type ApprovalRepo struct {
	q Querier
}

// NewApprovalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewApprovalRepository(q Querier) *ApprovalRepo {
	return &ApprovalRepo{q: q}
}

// Create persiste un registro de aprobación.
func (r *ApprovalRepo) Create(record *entity.ApprovalRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO approval_records (id, request_id, approver_id, approver_role, stage, outcome, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		record.ID, record.RequestID, record.ApproverID, record.ApproverRole,
		record.Stage, record.Outcome, record.Comment, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create approval record: %w", err)
	}
	return nil
}

// ListByRequest lista los registros de aprobación de una solicitud en orden de firma.
func (r *ApprovalRepo) ListByRequest(requestID string) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, request_id, approver_id, approver_role, stage, outcome, comment, created_at
		FROM approval_records WHERE request_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list approval records: %w", err)
	}
	defer rows.Close()
	var list []*entity.ApprovalRecord
	for rows.Next() {
		var rec entity.ApprovalRecord
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.ApproverID, &rec.ApproverRole,
			&rec.Stage, &rec.Outcome, &rec.Comment, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
