package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.WorkSessionRepository = (*WorkSessionRepo)(nil)

// WorkSessionRepo implementación sobre PostgreSQL (usable con pool o tx).
// El índice único parcial ux_work_sessions_open (request_id WHERE ended_at IS NULL)
// es la garantía de unicidad bajo concurrencia: dos start casi simultáneos de
// clientes desactualizados no pueden insertarse ambos.
type WorkSessionRepo struct {
	q Querier
}

// NewWorkSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWorkSessionRepository(q Querier) *WorkSessionRepo {
	return &WorkSessionRepo{q: q}
}

// Create inserta una sesión abierta. Violación del índice único parcial se
// traduce a ErrSessionAlreadyOpen.
func (r *WorkSessionRepo) Create(session *entity.WorkSession) error {
	query := `
		INSERT INTO work_sessions (id, request_id, technician_id, started_at, ended_at, duration_minutes, notes, admin_closed, close_reason)
		VALUES ($1, $2, $3, $4, NULL, 0, '', false, '')`
	_, err := r.q.Exec(context.Background(), query,
		session.ID, session.RequestID, session.TechnicianID, session.StartedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionAlreadyOpen
		}
		return fmt.Errorf("create work session: %w", err)
	}
	return nil
}

// GetOpenByRequest devuelve la sesión abierta de la solicitud, o nil si no hay.
func (r *WorkSessionRepo) GetOpenByRequest(requestID string) (*entity.WorkSession, error) {
	query := `
		SELECT id, request_id, technician_id, started_at, ended_at, duration_minutes, notes, admin_closed, close_reason
		FROM work_sessions WHERE request_id = $1 AND ended_at IS NULL`
	var s entity.WorkSession
	err := r.q.QueryRow(context.Background(), query, requestID).Scan(
		&s.ID, &s.RequestID, &s.TechnicianID, &s.StartedAt, &s.EndedAt,
		&s.DurationMinutes, &s.Notes, &s.AdminClosed, &s.CloseReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open work session: %w", err)
	}
	return &s, nil
}

// Close persiste el cierre de la sesión (normal o administrativo). Solo aplica
// sobre la fila aún abierta: una sesión cerrada es inmutable.
func (r *WorkSessionRepo) Close(session *entity.WorkSession) error {
	query := `
		UPDATE work_sessions
		SET ended_at = $2, duration_minutes = $3, notes = $4, admin_closed = $5, close_reason = $6
		WHERE id = $1 AND ended_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query,
		session.ID, session.EndedAt, session.DurationMinutes, session.Notes,
		session.AdminClosed, session.CloseReason,
	)
	if err != nil {
		return fmt.Errorf("close work session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoOpenSession
	}
	return nil
}

// ListByRequest lista las sesiones de una solicitud en orden cronológico.
func (r *WorkSessionRepo) ListByRequest(requestID string) ([]*entity.WorkSession, error) {
	query := `
		SELECT id, request_id, technician_id, started_at, ended_at, duration_minutes, notes, admin_closed, close_reason
		FROM work_sessions WHERE request_id = $1 ORDER BY started_at ASC`
	rows, err := r.q.Query(context.Background(), query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list work sessions: %w", err)
	}
	defer rows.Close()
	var list []*entity.WorkSession
	for rows.Next() {
		var s entity.WorkSession
		if err := rows.Scan(&s.ID, &s.RequestID, &s.TechnicianID, &s.StartedAt, &s.EndedAt,
			&s.DurationMinutes, &s.Notes, &s.AdminClosed, &s.CloseReason); err != nil {
			return nil, fmt.Errorf("scan work session: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
