package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	domlifecycle "github.com/tu-usuario/servitec-pro/internal/domain/lifecycle"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// Options parámetros de comportamiento del motor (ver config.EngineConfig).
type Options struct {
	ReassignReasonRequired bool
	AllowSameTechnician    bool
}

// RequestUseCase orquesta el ciclo de vida de una solicitud de servicio:
// aprobación por etapas, asignación/reasignación, sesiones de trabajo y cierre.
// Es el único componente que escribe Status, siempre vía la tabla de transiciones
// y con control optimista de versión (Commit/Rollback en TxRunner).
type RequestUseCase struct {
	txRunner TxRunner
	reqRepo  repository.ServiceRequestRepository
	apprRepo repository.ApprovalRepository
	asgRepo  repository.AssignmentRepository
	sessRepo repository.WorkSessionRepository
	techRepo repository.TechnicianRepository
	opts     Options
	now      func() time.Time
}

// NewRequestUseCase construye el caso de uso. Los repositorios recibidos aquí se
// usan para lecturas; las mutaciones corren sobre repos atados a la tx del TxRunner.
func NewRequestUseCase(
	txRunner TxRunner,
	reqRepo repository.ServiceRequestRepository,
	apprRepo repository.ApprovalRepository,
	asgRepo repository.AssignmentRepository,
	sessRepo repository.WorkSessionRepository,
	techRepo repository.TechnicianRepository,
	opts Options,
) *RequestUseCase {
	return &RequestUseCase{
		txRunner: txRunner,
		reqRepo:  reqRepo,
		apprRepo: apprRepo,
		asgRepo:  asgRepo,
		sessRepo: sessRepo,
		techRepo: techRepo,
		opts:     opts,
		now:      time.Now,
	}
}

// SubmitInput datos de creación de una solicitud.
type SubmitInput struct {
	Type        string
	CustomerID  string
	RegionID    string
	Description string
}

// Submit crea la solicitud y la deja en PENDING_APPROVAL. Cualquier rol
// autenticado puede crear; el rol del creador decide el flujo de aprobación.
func (uc *RequestUseCase) Submit(ctx context.Context, caller Caller, input SubmitInput) (*entity.ServiceRequest, error) {
	if !entity.ValidRequestType(input.Type) || input.CustomerID == "" || input.RegionID == "" {
		return nil, domain.ErrInvalidInput
	}
	status, err := domlifecycle.Next(entity.StatusDraft, domlifecycle.OpSubmit)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	req := &entity.ServiceRequest{
		ID:          uuid.New().String(),
		Type:        input.Type,
		Status:      status,
		CustomerID:  input.CustomerID,
		RegionID:    input.RegionID,
		Description: input.Description,
		CreatedBy:   caller.UserID,
		CreatorRole: caller.Role,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var created *entity.ServiceRequest
	err = uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		_ repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		_ repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		if err := reqRepo.Create(req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Approve firma la etapa de aprobación pendiente. Si el creador es de ventas, la
// primera firma (SALES) deja la solicitud en PENDING_APPROVAL y la segunda
// (SERVICE) la lleva a APPROVED; en otro caso una sola firma SERVICE basta.
func (uc *RequestUseCase) Approve(ctx context.Context, caller Caller, requestID, comment string) (*entity.ServiceRequest, error) {
	var result *entity.ServiceRequest
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		apprRepo repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		_ repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		approvals, err := apprRepo.ListByRequest(requestID)
		if err != nil {
			return err
		}
		stage := PendingStage(req, approvals)
		if err := gateCheck(stage, caller.Role); err != nil {
			return err
		}
		op := domlifecycle.OpApprove
		if stage == entity.ApprovalStageSales {
			op = domlifecycle.OpApproveSales
		}
		next, err := domlifecycle.Next(req.Status, op)
		if err != nil {
			return err
		}
		record := &entity.ApprovalRecord{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			ApproverID:   caller.UserID,
			ApproverRole: caller.Role,
			Stage:        stage,
			Outcome:      entity.OutcomeApproved,
			Comment:      comment,
			CreatedAt:    uc.now(),
		}
		if err := apprRepo.Create(record); err != nil {
			return err
		}
		req.Status = next
		if stage == entity.ApprovalStageService {
			req.ApprovedBy = caller.UserID
		}
		req.UpdatedAt = uc.now()
		// UpdateVersioned también en el self-loop de ventas: serializa firmas concurrentes.
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reject rechaza la solicitud desde cualquiera de las dos etapas; es terminal y
// el comentario es obligatorio.
func (uc *RequestUseCase) Reject(ctx context.Context, caller Caller, requestID, comment string) (*entity.ServiceRequest, error) {
	if comment == "" {
		return nil, fmt.Errorf("%w: el comentario de rechazo es obligatorio", domain.ErrInvalidInput)
	}
	var result *entity.ServiceRequest
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		apprRepo repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		_ repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		approvals, err := apprRepo.ListByRequest(requestID)
		if err != nil {
			return err
		}
		stage := PendingStage(req, approvals)
		if err := gateCheck(stage, caller.Role); err != nil {
			return err
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpReject)
		if err != nil {
			return err
		}
		record := &entity.ApprovalRecord{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			ApproverID:   caller.UserID,
			ApproverRole: caller.Role,
			Stage:        stage,
			Outcome:      entity.OutcomeRejected,
			Comment:      comment,
			CreatedAt:    uc.now(),
		}
		if err := apprRepo.Create(record); err != nil {
			return err
		}
		req.Status = next
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Assign asigna técnico a una solicitud APPROVED. En modo auto elige el técnico
// ACTIVE de la región con menos solicitudes abiertas (empates por antigüedad del
// registro, para determinismo); en modo manual valida región y estado del técnico.
func (uc *RequestUseCase) Assign(ctx context.Context, caller Caller, requestID, technicianID string, auto bool) (*entity.ServiceRequest, error) {
	if !entity.CanAssign(caller.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if !auto && technicianID == "" {
		return nil, domain.ErrInvalidInput
	}
	var result *entity.ServiceRequest
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		_ repository.ApprovalRepository,
		asgRepo repository.AssignmentRepository,
		_ repository.WorkSessionRepository,
		techRepo repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpAssign)
		if err != nil {
			return err
		}
		tech, err := uc.pickTechnician(techRepo, req, technicianID, auto)
		if err != nil {
			return err
		}
		event := &entity.AssignmentEvent{
			ID:              uuid.New().String(),
			RequestID:       req.ID,
			NewTechnicianID: tech.ID,
			Auto:            auto,
			ActorID:         caller.UserID,
			CreatedAt:       uc.now(),
		}
		if err := asgRepo.Create(event); err != nil {
			return err
		}
		req.Status = next
		req.TechnicianID = tech.ID
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// pickTechnician resuelve el técnico destino de una (re)asignación.
func (uc *RequestUseCase) pickTechnician(techRepo repository.TechnicianRepository, req *entity.ServiceRequest, technicianID string, auto bool) (*entity.Technician, error) {
	if auto {
		techs, err := techRepo.ListEligible(req.RegionID)
		if err != nil {
			return nil, err
		}
		if len(techs) == 0 {
			return nil, fmt.Errorf("%w: no hay técnicos elegibles en la región %s", domain.ErrIneligibleTechnician, req.RegionID)
		}
		return techs[0], nil
	}
	tech, err := techRepo.GetByID(technicianID)
	if err != nil {
		return nil, err
	}
	if tech == nil {
		return nil, fmt.Errorf("%w: técnico %s no existe", domain.ErrIneligibleTechnician, technicianID)
	}
	if !tech.EligibleFor(req.RegionID) {
		return nil, fmt.Errorf("%w: técnico %s inactivo o fuera de la región %s", domain.ErrIneligibleTechnician, tech.ID, req.RegionID)
	}
	return tech, nil
}

// Reassign cambia el técnico de una solicitud ASSIGNED o IN_PROGRESS sin cambiar
// el estado. Si el técnico anterior tenía sesión abierta, se cierra
// administrativamente (duración calculada y marcada) antes del nuevo evento.
func (uc *RequestUseCase) Reassign(ctx context.Context, caller Caller, requestID, newTechnicianID string, reason entity.ReassignReason, allowSame bool) (*entity.ServiceRequest, error) {
	if !entity.CanAssign(caller.Role) {
		return nil, domain.ErrPermissionDenied
	}
	if newTechnicianID == "" {
		return nil, domain.ErrInvalidInput
	}
	if uc.opts.ReassignReasonRequired || reason.Code != "" {
		if !reason.Valid() {
			return nil, fmt.Errorf("%w: razón de reasignación inválida o nota faltante", domain.ErrInvalidInput)
		}
	}
	var result *entity.ServiceRequest
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		_ repository.ApprovalRepository,
		asgRepo repository.AssignmentRepository,
		sessRepo repository.WorkSessionRepository,
		techRepo repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpReassign)
		if err != nil {
			return err
		}
		if newTechnicianID == req.TechnicianID && !allowSame && !uc.opts.AllowSameTechnician {
			return domain.ErrNoOpReassignment
		}
		tech, err := uc.pickTechnician(techRepo, req, newTechnicianID, false)
		if err != nil {
			return err
		}
		// Cierre administrativo de la sesión abierta del técnico saliente, si existe.
		open, err := sessRepo.GetOpenByRequest(req.ID)
		if err != nil {
			return err
		}
		if open != nil {
			end := uc.now()
			dur := end.Sub(open.StartedAt)
			minutes := int64(dur / time.Minute)
			if dur < 0 {
				// Reloj desfasado: la duración se sintetiza a cero y el ajuste
				// queda anotado en la sesión, no se pierde en silencio.
				minutes = 0
				open.Notes = "duración ajustada a cero por desfase de reloj"
			}
			open.EndedAt = &end
			open.DurationMinutes = minutes
			open.AdminClosed = true
			open.CloseReason = entity.SessionCloseReassigned
			if err := sessRepo.Close(open); err != nil {
				return err
			}
		}
		event := &entity.AssignmentEvent{
			ID:                   uuid.New().String(),
			RequestID:            req.ID,
			PreviousTechnicianID: req.TechnicianID,
			NewTechnicianID:      tech.ID,
			ReasonCode:           reason.Code,
			ReasonNote:           reason.Note,
			ActorID:              caller.UserID,
			CreatedAt:            uc.now(),
		}
		if err := asgRepo.Create(event); err != nil {
			return err
		}
		req.Status = next
		req.TechnicianID = tech.ID
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartWork abre la sesión de trabajo del técnico asignado y pasa la solicitud a
// IN_PROGRESS. El índice único parcial de la BD es la garantía final contra dos
// start simultáneos de clientes desactualizados.
func (uc *RequestUseCase) StartWork(ctx context.Context, caller Caller, requestID string) (*entity.WorkSession, error) {
	var result *entity.WorkSession
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		_ repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		sessRepo repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if caller.TechnicianID == "" || caller.TechnicianID != req.TechnicianID {
			return domain.ErrPermissionDenied
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpStartWork)
		if err != nil {
			return err
		}
		open, err := sessRepo.GetOpenByRequest(req.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrSessionAlreadyOpen
		}
		session := &entity.WorkSession{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			TechnicianID: caller.TechnicianID,
			StartedAt:    uc.now(),
		}
		if err := sessRepo.Create(session); err != nil {
			return err
		}
		req.Status = next
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StopWork cierra la sesión abierta, calcula la duración y pasa la solicitud a
// WORK_COMPLETED. Duración no positiva se rechaza como desfase de reloj.
func (uc *RequestUseCase) StopWork(ctx context.Context, caller Caller, requestID, notes string) (*entity.WorkSession, error) {
	var result *entity.WorkSession
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		_ repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		sessRepo repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if caller.TechnicianID == "" || caller.TechnicianID != req.TechnicianID {
			return domain.ErrPermissionDenied
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpStopWork)
		if err != nil {
			return err
		}
		open, err := sessRepo.GetOpenByRequest(req.ID)
		if err != nil {
			return err
		}
		if open == nil {
			return domain.ErrNoOpenSession
		}
		end := uc.now()
		dur := end.Sub(open.StartedAt)
		if dur <= 0 {
			return domain.ErrClockSkew
		}
		open.EndedAt = &end
		open.DurationMinutes = int64(dur / time.Minute)
		open.Notes = notes
		if err := sessRepo.Close(open); err != nil {
			return err
		}
		req.Status = next
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Acknowledge (acta de cierre): un rol de servicio confirma el trabajo terminado
// y la solicitud pasa a COMPLETED, con registro de cierre en el historial.
func (uc *RequestUseCase) Acknowledge(ctx context.Context, caller Caller, requestID, comment string) (*entity.ServiceRequest, error) {
	if !entity.IsServiceRole(caller.Role) {
		return nil, domain.ErrPermissionDenied
	}
	var result *entity.ServiceRequest
	err := uc.txRunner.Run(ctx, func(
		reqRepo repository.ServiceRequestRepository,
		apprRepo repository.ApprovalRepository,
		_ repository.AssignmentRepository,
		_ repository.WorkSessionRepository,
		_ repository.TechnicianRepository,
	) error {
		req, err := reqRepo.GetByID(requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		next, err := domlifecycle.Next(req.Status, domlifecycle.OpAcknowledge)
		if err != nil {
			return err
		}
		record := &entity.ApprovalRecord{
			ID:           uuid.New().String(),
			RequestID:    req.ID,
			ApproverID:   caller.UserID,
			ApproverRole: caller.Role,
			Stage:        entity.ApprovalStageClosure,
			Outcome:      entity.OutcomeCompleted,
			Comment:      comment,
			CreatedAt:    uc.now(),
		}
		if err := apprRepo.Create(record); err != nil {
			return err
		}
		req.Status = next
		req.UpdatedAt = uc.now()
		if err := reqRepo.UpdateVersioned(req); err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get devuelve la solicitud (lectura, sin transacción).
func (uc *RequestUseCase) Get(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	req, err := uc.reqRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

// List devuelve solicitudes filtradas (lectura, sin transacción).
func (uc *RequestUseCase) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.ServiceRequest, error) {
	return uc.reqRepo.List(filter)
}

// History agrupa el rastro de auditoría completo de la solicitud.
type History struct {
	Approvals   []*entity.ApprovalRecord
	Assignments []*entity.AssignmentEvent
	Sessions    []*entity.WorkSession
}

// GetHistory devuelve aprobaciones, asignaciones y sesiones de la solicitud.
func (uc *RequestUseCase) GetHistory(ctx context.Context, requestID string) (*History, error) {
	req, err := uc.reqRepo.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	approvals, err := uc.apprRepo.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	assignments, err := uc.asgRepo.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	sessions, err := uc.sessRepo.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	return &History{Approvals: approvals, Assignments: assignments, Sessions: sessions}, nil
}

// ListTechnicians proyección de solo lectura del directorio de técnicos.
func (uc *RequestUseCase) ListTechnicians(ctx context.Context, regionID, status string, limit, offset int) ([]*entity.Technician, error) {
	return uc.techRepo.List(regionID, status, limit, offset)
}
