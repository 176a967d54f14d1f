package repository

import "github.com/tu-usuario/servitec-pro/internal/domain/entity"

// TechnicianRepository puerto de lectura del master data de técnicos.
// ListEligible devuelve los técnicos ACTIVE de la región ordenados por número
// de solicitudes abiertas ascendente y, a igualdad, por created_at ascendente,
// para que la autoasignación sea determinista.
type TechnicianRepository interface {
	GetByID(id string) (*entity.Technician, error)
	ListEligible(regionID string) ([]*entity.Technician, error)
	List(regionID, status string, limit, offset int) ([]*entity.Technician, error)
}
