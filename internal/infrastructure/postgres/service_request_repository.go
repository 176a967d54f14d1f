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

var _ repository.ServiceRequestRepository = (*ServiceRequestRepo)(nil)

// ServiceRequestRepo implementación de ServiceRequestRepository sobre PostgreSQL (usable con pool o tx).
type ServiceRequestRepo struct {
	q Querier
}

// NewServiceRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewServiceRequestRepository(q Querier) *ServiceRequestRepo {
	return &ServiceRequestRepo{q: q}
}

const requestColumns = `id, type, status, customer_id, region_id, description,
		created_by, creator_role, approved_by, technician_id, version, created_at, updated_at`

// Create persiste una nueva solicitud.
func (r *ServiceRequestRepo) Create(req *entity.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		req.ID, req.Type, req.Status, req.CustomerID, req.RegionID, req.Description,
		req.CreatedBy, req.CreatorRole, nullable(req.ApprovedBy), nullable(req.TechnicianID),
		req.Version, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create service request: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud por ID; nil si no existe.
func (r *ServiceRequestRepo) GetByID(id string) (*entity.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	req, err := scanRequest(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service request: %w", err)
	}
	return req, nil
}

// UpdateVersioned escribe status/técnico/aprobador con control optimista.
// Cero filas afectadas significa que otro actor ganó la carrera: ErrConcurrencyConflict.
func (r *ServiceRequestRepo) UpdateVersioned(req *entity.ServiceRequest) error {
	query := `
		UPDATE service_requests
		SET status = $2, approved_by = $3, technician_id = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $6`
	tag, err := r.q.Exec(context.Background(), query,
		req.ID, req.Status, nullable(req.ApprovedBy), nullable(req.TechnicianID),
		req.UpdatedAt, req.Version,
	)
	if err != nil {
		return fmt.Errorf("update service request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrencyConflict
	}
	req.Version++
	return nil
}

// List devuelve solicitudes filtradas por estado, región y/o técnico.
func (r *ServiceRequestRepo) List(filter repository.RequestFilter) ([]*entity.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.RegionID != "" {
		query += fmt.Sprintf(" AND region_id = $%d", pos)
		args = append(args, filter.RegionID)
		pos++
	}
	if filter.TechnicianID != "" {
		query += fmt.Sprintf(" AND technician_id = $%d", pos)
		args = append(args, filter.TechnicianID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list service requests: %w", err)
	}
	defer rows.Close()
	var list []*entity.ServiceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func scanRequest(row pgx.Row) (*entity.ServiceRequest, error) {
	var req entity.ServiceRequest
	var approvedBy, technicianID *string
	err := row.Scan(
		&req.ID, &req.Type, &req.Status, &req.CustomerID, &req.RegionID, &req.Description,
		&req.CreatedBy, &req.CreatorRole, &approvedBy, &technicianID,
		&req.Version, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedBy != nil {
		req.ApprovedBy = *approvedBy
	}
	if technicianID != nil {
		req.TechnicianID = *technicianID
	}
	return &req, nil
}

// nullable convierte "" a NULL para columnas opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
