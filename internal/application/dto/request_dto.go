package dto

import (
	"time"

	"github.com/tu-usuario/servitec-pro/internal/application/lifecycle"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
)

// SubmitRequest body para POST /api/requests.
type SubmitRequest struct {
	Type        string `json:"type" validate:"required,oneof=SERVICE INSTALLATION RE_INSTALLATION COMPLAINT ENQUIRY"`
	CustomerID  string `json:"customer_id" validate:"required,uuid4"`
	RegionID    string `json:"region_id" validate:"required,uuid4"`
	Description string `json:"description" validate:"max=2000"`
}

// ApprovalRequest body para approve/reject/complete. Comments es obligatorio
// solo en reject (se valida en el handler, no aquí).
type ApprovalRequest struct {
	Comments string `json:"comments" validate:"max=2000"`
}

// AssignRequest body para POST /api/requests/:id/assign.
type AssignRequest struct {
	TechnicianID string `json:"technician_id" validate:"omitempty,uuid4"`
	Auto         bool   `json:"auto"`
}

// ReassignRequest body para POST /api/requests/:id/reassign.
type ReassignRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid4"`
	Reason       string `json:"reason" validate:"omitempty,oneof=TECHNICIAN_UNAVAILABLE WORKLOAD_BALANCING CUSTOMER_REQUEST SKILL_MISMATCH OTHER"`
	Note         string `json:"note" validate:"max=2000"`
	AllowSame    bool   `json:"allow_same"`
}

// StopWorkRequest body para POST /api/requests/:id/work/stop.
type StopWorkRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ServiceRequestResponse estado autoritativo post-operación de la solicitud.
// Toda llamada mutadora lo devuelve completo para que el cliente resincronice
// sin una segunda lectura.
type ServiceRequestResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	CustomerID   string    `json:"customer_id"`
	RegionID     string    `json:"region_id"`
	Description  string    `json:"description,omitempty"`
	CreatedBy    string    `json:"created_by"`
	CreatorRole  string    `json:"creator_role"`
	ApprovedBy   string    `json:"approved_by,omitempty"`
	TechnicianID string    `json:"technician_id,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromRequest mapea la entidad a la respuesta HTTP.
func FromRequest(r *entity.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:           r.ID,
		Type:         r.Type,
		Status:       r.Status,
		CustomerID:   r.CustomerID,
		RegionID:     r.RegionID,
		Description:  r.Description,
		CreatedBy:    r.CreatedBy,
		CreatorRole:  r.CreatorRole,
		ApprovedBy:   r.ApprovedBy,
		TechnicianID: r.TechnicianID,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ApprovalRecordDTO registro de aprobación en el historial.
type ApprovalRecordDTO struct {
	ID           string    `json:"id"`
	ApproverID   string    `json:"approver_id"`
	ApproverRole string    `json:"approver_role"`
	Stage        string    `json:"stage"`
	Outcome      string    `json:"outcome"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AssignmentEventDTO evento de asignación en el historial.
type AssignmentEventDTO struct {
	ID                   string    `json:"id"`
	PreviousTechnicianID string    `json:"previous_technician_id,omitempty"`
	NewTechnicianID      string    `json:"new_technician_id"`
	ReasonCode           string    `json:"reason_code,omitempty"`
	ReasonNote           string    `json:"reason_note,omitempty"`
	Auto                 bool      `json:"auto"`
	ActorID              string    `json:"actor_id"`
	CreatedAt            time.Time `json:"created_at"`
}

// WorkSessionDTO sesión de trabajo (abierta o cerrada).
type WorkSessionDTO struct {
	ID              string     `json:"id"`
	RequestID       string     `json:"request_id"`
	TechnicianID    string     `json:"technician_id"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int64      `json:"duration_minutes"`
	Notes           string     `json:"notes,omitempty"`
	AdminClosed     bool       `json:"admin_closed"`
	CloseReason     string     `json:"close_reason,omitempty"`
}

// FromSession mapea la entidad a DTO.
func FromSession(s *entity.WorkSession) WorkSessionDTO {
	return WorkSessionDTO{
		ID:              s.ID,
		RequestID:       s.RequestID,
		TechnicianID:    s.TechnicianID,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		DurationMinutes: s.DurationMinutes,
		Notes:           s.Notes,
		AdminClosed:     s.AdminClosed,
		CloseReason:     s.CloseReason,
	}
}

// HistoryResponse respuesta de GET /api/requests/:id/history.
type HistoryResponse struct {
	Approvals   []ApprovalRecordDTO  `json:"approvals"`
	Assignments []AssignmentEventDTO `json:"assignments"`
	Sessions    []WorkSessionDTO     `json:"sessions"`
}

// FromHistory mapea el agregado de historial a la respuesta HTTP.
func FromHistory(h *lifecycle.History) HistoryResponse {
	resp := HistoryResponse{
		Approvals:   make([]ApprovalRecordDTO, 0, len(h.Approvals)),
		Assignments: make([]AssignmentEventDTO, 0, len(h.Assignments)),
		Sessions:    make([]WorkSessionDTO, 0, len(h.Sessions)),
	}
	for _, a := range h.Approvals {
		resp.Approvals = append(resp.Approvals, ApprovalRecordDTO{
			ID:           a.ID,
			ApproverID:   a.ApproverID,
			ApproverRole: a.ApproverRole,
			Stage:        a.Stage,
			Outcome:      a.Outcome,
			Comment:      a.Comment,
			CreatedAt:    a.CreatedAt,
		})
	}
	for _, e := range h.Assignments {
		resp.Assignments = append(resp.Assignments, AssignmentEventDTO{
			ID:                   e.ID,
			PreviousTechnicianID: e.PreviousTechnicianID,
			NewTechnicianID:      e.NewTechnicianID,
			ReasonCode:           e.ReasonCode,
			ReasonNote:           e.ReasonNote,
			Auto:                 e.Auto,
			ActorID:              e.ActorID,
			CreatedAt:            e.CreatedAt,
		})
	}
	for _, s := range h.Sessions {
		resp.Sessions = append(resp.Sessions, FromSession(s))
	}
	return resp
}

// TechnicianDTO proyección de solo lectura del directorio de técnicos.
type TechnicianDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RegionID string `json:"region_id"`
	Status   string `json:"status"`
}

// FromTechnician mapea la entidad a DTO.
func FromTechnician(t *entity.Technician) TechnicianDTO {
	return TechnicianDTO{ID: t.ID, Name: t.Name, RegionID: t.RegionID, Status: t.Status}
}
