package entity

import "time"

// Estados de un técnico de campo.
const (
	TechnicianActive   = "ACTIVE"
	TechnicianInactive = "INACTIVE"
)

// Technician representa un técnico de campo. El CRUD de técnicos es master data
// externo; el motor lo lee para validar elegibilidad y para la autoasignación.
type Technician struct {
	ID        string
	UserID    string
	Name      string
	RegionID  string
	Status    string // ACTIVE, INACTIVE
	CreatedAt time.Time
}

// EligibleFor indica si el técnico puede recibir solicitudes de la región dada.
func (t *Technician) EligibleFor(regionID string) bool {
	return t.Status == TechnicianActive && t.RegionID == regionID
}
