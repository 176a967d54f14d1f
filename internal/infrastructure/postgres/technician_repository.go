package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

var _ repository.TechnicianRepository = (*TechnicianRepo)(nil)

// Estados considerados "abiertos" para la carga de trabajo de un técnico.
const openStatuses = `('ASSIGNED', 'IN_PROGRESS', 'WORK_COMPLETED')`

// TechnicianRepo implementación de lectura del master data de técnicos (usable con pool o tx).
type TechnicianRepo struct {
	q Querier
}

// NewTechnicianRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTechnicianRepository(q Querier) *TechnicianRepo {
	return &TechnicianRepo{q: q}
}

// GetByID obtiene un técnico por ID; nil si no existe.
func (r *TechnicianRepo) GetByID(id string) (*entity.Technician, error) {
	query := `
		SELECT id, user_id, name, region_id, status, created_at
		FROM technicians WHERE id = $1`
	var t entity.Technician
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&t.ID, &t.UserID, &t.Name, &t.RegionID, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get technician: %w", err)
	}
	return &t, nil
}

// ListEligible devuelve los técnicos ACTIVE de la región ordenados por número de
// solicitudes abiertas ascendente y, a igualdad, por created_at ascendente.
// El orden en SQL hace determinista la autoasignación.
func (r *TechnicianRepo) ListEligible(regionID string) ([]*entity.Technician, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.region_id, t.status, t.created_at
		FROM technicians t
		LEFT JOIN (
			SELECT technician_id, count(*) AS open_count
			FROM service_requests
			WHERE status IN ` + openStatuses + `
			GROUP BY technician_id
		) oc ON oc.technician_id = t.id
		WHERE t.region_id = $1 AND t.status = 'ACTIVE'
		ORDER BY COALESCE(oc.open_count, 0) ASC, t.created_at ASC`
	rows, err := r.q.Query(context.Background(), query, regionID)
	if err != nil {
		return nil, fmt.Errorf("list eligible technicians: %w", err)
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

// List lista técnicos filtrados por región y/o estado (directorio de solo lectura).
func (r *TechnicianRepo) List(regionID, status string, limit, offset int) ([]*entity.Technician, error) {
	query := `
		SELECT id, user_id, name, region_id, status, created_at
		FROM technicians WHERE 1=1`
	args := []any{}
	pos := 1
	if regionID != "" {
		query += fmt.Sprintf(" AND region_id = $%d", pos)
		args = append(args, regionID)
		pos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func scanTechnicians(rows pgx.Rows) ([]*entity.Technician, error) {
	var list []*entity.Technician
	for rows.Next() {
		var t entity.Technician
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.RegionID, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
