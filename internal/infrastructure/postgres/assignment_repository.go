package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.AssignmentRepository = (*AssignmentRepo)(nil)

// AssignmentRepo implementación append-only sobre PostgreSQL (usable con pool o tx).
type AssignmentRepo struct {
	q Querier
}

// NewAssignmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssignmentRepository(q Querier) *AssignmentRepo {
	return &AssignmentRepo{q: q}
}

// Create persiste un evento de asignación.
func (r *AssignmentRepo) Create(event *entity.AssignmentEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO assignment_events (id, request_id, previous_technician_id, new_technician_id, reason_code, reason_note, auto, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		event.ID, event.RequestID, nullable(event.PreviousTechnicianID), event.NewTechnicianID,
		nullable(event.ReasonCode), event.ReasonNote, event.Auto, event.ActorID, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create assignment event: %w", err)
	}
	return nil
}

// ListByRequest lista el historial de asignaciones de una solicitud en orden cronológico.
func (r *AssignmentRepo) ListByRequest(requestID string) ([]*entity.AssignmentEvent, error) {
	query := `
		SELECT id, request_id, previous_technician_id, new_technician_id, reason_code, reason_note, auto, actor_id, created_at
		FROM assignment_events WHERE request_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list assignment events: %w", err)
	}
	defer rows.Close()
	var list []*entity.AssignmentEvent
	for rows.Next() {
		var ev entity.AssignmentEvent
		var previous, reason *string
		if err := rows.Scan(&ev.ID, &ev.RequestID, &previous, &ev.NewTechnicianID,
			&reason, &ev.ReasonNote, &ev.Auto, &ev.ActorID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment event: %w", err)
		}
		if previous != nil {
			ev.PreviousTechnicianID = *previous
		}
		if reason != nil {
			ev.ReasonCode = *reason
		}
		list = append(list, &ev)
	}
	return list, rows.Err()
}
