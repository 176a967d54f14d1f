package entity

import "time"

// Razones de reasignación (enumeración cerrada). ReasonOther exige nota libre.
const (
	ReasonTechnicianUnavailable = "TECHNICIAN_UNAVAILABLE"
	ReasonWorkloadBalancing     = "WORKLOAD_BALANCING"
	ReasonCustomerRequest       = "CUSTOMER_REQUEST"
	ReasonSkillMismatch         = "SKILL_MISMATCH"
	ReasonOther                 = "OTHER"
)

// ReassignReason es la variante etiquetada razón-enumerada | Other(texto).
// Note solo es obligatoria (y solo tiene sentido) cuando Code == OTHER.
type ReassignReason struct {
	Code string
	Note string
}

// Valid verifica el código contra la enumeración y la obligatoriedad de la nota.
func (r ReassignReason) Valid() bool {
	switch r.Code {
	case ReasonTechnicianUnavailable, ReasonWorkloadBalancing, ReasonCustomerRequest, ReasonSkillMismatch:
		return true
	case ReasonOther:
		return r.Note != ""
	}
	return false
}

// AssignmentEvent es una entrada inmutable del historial de asignaciones.
// PreviousTechnicianID vacío indica la asignación inicial.
type AssignmentEvent struct {
	ID                   string
	RequestID            string
	PreviousTechnicianID string
	NewTechnicianID      string
	ReasonCode           string // vacío en asignación inicial
	ReasonNote           string
	Auto                 bool // true si la selección fue automática
	ActorID              string
	CreatedAt            time.Time
}
