package entity

import "time"

// Tipos de solicitud de servicio.
const (
	RequestTypeService        = "SERVICE"
	RequestTypeInstallation   = "INSTALLATION"
	RequestTypeReInstallation = "RE_INSTALLATION"
	RequestTypeComplaint      = "COMPLAINT"
	RequestTypeEnquiry        = "ENQUIRY"
)

// Estados del ciclo de vida. Solo RequestLifecycle escribe Status.
const (
	StatusDraft           = "DRAFT"
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusApproved        = "APPROVED"
	StatusAssigned        = "ASSIGNED"
	StatusInProgress      = "IN_PROGRESS"
	StatusWorkCompleted   = "WORK_COMPLETED"
	StatusCompleted       = "COMPLETED"
	StatusRejected        = "REJECTED"
)

// ValidRequestType valida el tipo recibido desde el exterior.
func ValidRequestType(t string) bool {
	switch t {
	case RequestTypeService, RequestTypeInstallation, RequestTypeReInstallation,
		RequestTypeComplaint, RequestTypeEnquiry:
		return true
	}
	return false
}

// ServiceRequest representa una solicitud de servicio en campo (instalación o
// reparación de equipos de filtración de agua). Se cierra por estado terminal,
// nunca se borra físicamente.
type ServiceRequest struct {
	ID           string
	Type         string // SERVICE, INSTALLATION, RE_INSTALLATION, COMPLAINT, ENQUIRY
	Status       string
	CustomerID   string
	RegionID     string
	Description  string
	CreatedBy    string // UserID del creador
	CreatorRole  string // rol del creador al momento de crear (decide el flujo de aprobación)
	ApprovedBy   string // UserID del último aprobador, vacío mientras no exista
	TechnicianID string // técnico asignado actual, vacío hasta ASSIGNED
	Version      int64  // control optimista: toda escritura de Status la incrementa
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal indica si la solicitud ya no acepta transiciones.
func (r *ServiceRequest) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusRejected
}
