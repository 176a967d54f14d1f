package repository

import "github.com/tu-usuario/servitec-pro/internal/domain/entity"

// RequestFilter filtros para listar solicitudes.
type RequestFilter struct {
	Status       string
	RegionID     string
	TechnicianID string
	Limit        int
	Offset       int
}

// ServiceRequestRepository define el puerto de persistencia para ServiceRequest (DIP).
// UpdateVersioned es la única vía de escritura de Status: compara Version y
// devuelve ErrConcurrencyConflict si otro actor ganó la carrera.
type ServiceRequestRepository interface {
	Create(req *entity.ServiceRequest) error
	GetByID(id string) (*entity.ServiceRequest, error)
	// UpdateVersioned escribe status/technician/approver con control optimista
	// (WHERE version = req.Version) e incrementa req.Version en éxito.
	UpdateVersioned(req *entity.ServiceRequest) error
	List(filter RequestFilter) ([]*entity.ServiceRequest, error)
}
