package lifecycle

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria: mismo contrato que los adaptadores postgres, sin BD.
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	requests    map[string]*entity.ServiceRequest
	approvals   []*entity.ApprovalRecord
	assignments []*entity.AssignmentEvent
	sessions    []*entity.WorkSession
	technicians []*entity.Technician
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: make(map[string]*entity.ServiceRequest)}
}

func cloneRequest(r *entity.ServiceRequest) *entity.ServiceRequest {
	c := *r
	return &c
}

func cloneSession(s *entity.WorkSession) *entity.WorkSession {
	c := *s
	if s.EndedAt != nil {
		end := *s.EndedAt
		c.EndedAt = &end
	}
	return &c
}

type fakeRequestRepo struct{ s *fakeStore }

func (r *fakeRequestRepo) Create(req *entity.ServiceRequest) error {
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *fakeRequestRepo) GetByID(id string) (*entity.ServiceRequest, error) {
	stored, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	return cloneRequest(stored), nil
}

// UpdateVersioned replica el contrato del adaptador real: compara Version,
// ErrConcurrencyConflict si otro actor ganó, e incrementa en éxito.
func (r *fakeRequestRepo) UpdateVersioned(req *entity.ServiceRequest) error {
	stored, ok := r.s.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != req.Version {
		return domain.ErrConcurrencyConflict
	}
	req.Version++
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *fakeRequestRepo) List(filter repository.RequestFilter) ([]*entity.ServiceRequest, error) {
	var list []*entity.ServiceRequest
	for _, req := range r.s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.TechnicianID != "" && req.TechnicianID != filter.TechnicianID {
			continue
		}
		list = append(list, cloneRequest(req))
	}
	return list, nil
}

type fakeApprovalRepo struct{ s *fakeStore }

func (r *fakeApprovalRepo) Create(record *entity.ApprovalRecord) error {
	c := *record
	r.s.approvals = append(r.s.approvals, &c)
	return nil
}

func (r *fakeApprovalRepo) ListByRequest(requestID string) ([]*entity.ApprovalRecord, error) {
	var list []*entity.ApprovalRecord
	for _, a := range r.s.approvals {
		if a.RequestID == requestID {
			list = append(list, a)
		}
	}
	return list, nil
}

type fakeAssignmentRepo struct{ s *fakeStore }

func (r *fakeAssignmentRepo) Create(event *entity.AssignmentEvent) error {
	c := *event
	r.s.assignments = append(r.s.assignments, &c)
	return nil
}

func (r *fakeAssignmentRepo) ListByRequest(requestID string) ([]*entity.AssignmentEvent, error) {
	var list []*entity.AssignmentEvent
	for _, e := range r.s.assignments {
		if e.RequestID == requestID {
			list = append(list, e)
		}
	}
	return list, nil
}

type fakeSessionRepo struct{ s *fakeStore }

func (r *fakeSessionRepo) Create(session *entity.WorkSession) error {
	for _, s := range r.s.sessions {
		if s.RequestID == session.RequestID && s.EndedAt == nil {
			return domain.ErrSessionAlreadyOpen
		}
	}
	r.s.sessions = append(r.s.sessions, cloneSession(session))
	return nil
}

func (r *fakeSessionRepo) GetOpenByRequest(requestID string) (*entity.WorkSession, error) {
	for _, s := range r.s.sessions {
		if s.RequestID == requestID && s.EndedAt == nil {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Close(session *entity.WorkSession) error {
	for i, s := range r.s.sessions {
		if s.ID == session.ID && s.EndedAt == nil {
			r.s.sessions[i] = cloneSession(session)
			return nil
		}
	}
	return domain.ErrNoOpenSession
}

func (r *fakeSessionRepo) ListByRequest(requestID string) ([]*entity.WorkSession, error) {
	var list []*entity.WorkSession
	for _, s := range r.s.sessions {
		if s.RequestID == requestID {
			list = append(list, cloneSession(s))
		}
	}
	return list, nil
}

type fakeTechnicianRepo struct{ s *fakeStore }

func (r *fakeTechnicianRepo) GetByID(id string) (*entity.Technician, error) {
	for _, t := range r.s.technicians {
		if t.ID == id {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

// ListEligible replica el ORDER BY del adaptador real: solicitudes abiertas
// ascendente y, a igualdad, created_at ascendente.
func (r *fakeTechnicianRepo) ListEligible(regionID string) ([]*entity.Technician, error) {
	openCount := func(techID string) int {
		n := 0
		for _, req := range r.s.requests {
			if req.TechnicianID != techID {
				continue
			}
			switch req.Status {
			case entity.StatusAssigned, entity.StatusInProgress, entity.StatusWorkCompleted:
				n++
			}
		}
		return n
	}
	var list []*entity.Technician
	for _, t := range r.s.technicians {
		if t.RegionID == regionID && t.Status == entity.TechnicianActive {
			c := *t
			list = append(list, &c)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		ci, cj := openCount(list[i].ID), openCount(list[j].ID)
		if ci != cj {
			return ci < cj
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *fakeTechnicianRepo) List(regionID, status string, limit, offset int) ([]*entity.Technician, error) {
	var list []*entity.Technician
	for _, t := range r.s.technicians {
		if regionID != "" && t.RegionID != regionID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		c := *t
		list = append(list, &c)
	}
	return list, nil
}

type fakeTxRunner struct{ s *fakeStore }

func (tx *fakeTxRunner) Run(ctx context.Context, fn func(
	reqRepo repository.ServiceRequestRepository,
	apprRepo repository.ApprovalRepository,
	asgRepo repository.AssignmentRepository,
	sessRepo repository.WorkSessionRepository,
	techRepo repository.TechnicianRepository,
) error) error {
	return fn(
		&fakeRequestRepo{tx.s},
		&fakeApprovalRepo{tx.s},
		&fakeAssignmentRepo{tx.s},
		&fakeSessionRepo{tx.s},
		&fakeTechnicianRepo{tx.s},
	)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de escenario
// ──────────────────────────────────────────────────────────────────────────────

const (
	regionNorte = "11111111-1111-4111-8111-111111111111"
	regionSur   = "22222222-2222-4222-8222-222222222222"
	customerID  = "33333333-3333-4333-8333-333333333333"
	techA       = "44444444-4444-4444-8444-444444444444"
	techB       = "55555555-5555-4555-8555-555555555555"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// newTestEngine arma el caso de uso sobre fakes con reloj controlable.
func newTestEngine(s *fakeStore, opts Options) (*RequestUseCase, *time.Time) {
	uc := NewRequestUseCase(
		&fakeTxRunner{s},
		&fakeRequestRepo{s},
		&fakeApprovalRepo{s},
		&fakeAssignmentRepo{s},
		&fakeSessionRepo{s},
		&fakeTechnicianRepo{s},
		opts,
	)
	clock := baseTime
	uc.now = func() time.Time { return clock }
	return uc, &clock
}

func defaultOpts() Options {
	return Options{ReassignReasonRequired: true}
}

func seedTechnician(s *fakeStore, id, region, status string, createdAt time.Time) {
	s.technicians = append(s.technicians, &entity.Technician{
		ID:        id,
		UserID:    "user-" + id,
		Name:      "Técnico " + id[:8],
		RegionID:  region,
		Status:    status,
		CreatedAt: createdAt,
	})
}

func coordinador() Caller { return Caller{UserID: "coord-1", Role: entity.RoleCoordinador} }
func vendedor() Caller    { return Caller{UserID: "vend-1", Role: entity.RoleVendedor} }

func tecnico(technicianID string) Caller {
	return Caller{UserID: "user-" + technicianID, Role: entity.RoleTecnico, TechnicianID: technicianID}
}

// submitAs crea una solicitud con el rol dado y la devuelve.
func submitAs(t *testing.T, uc *RequestUseCase, c Caller) *entity.ServiceRequest {
	t.Helper()
	req, err := uc.Submit(context.Background(), c, SubmitInput{
		Type:        entity.RequestTypeService,
		CustomerID:  customerID,
		RegionID:    regionNorte,
		Description: "filtro gotea en la conexión de entrada",
	})
	require.NoError(t, err)
	return req
}

// toAssigned lleva una solicitud recién creada por coordinador hasta ASSIGNED con techA.
func toAssigned(t *testing.T, uc *RequestUseCase, s *fakeStore) *entity.ServiceRequest {
	t.Helper()
	req := submitAs(t, uc, coordinador())
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)
	assigned, err := uc.Assign(context.Background(), coordinador(), req.ID, techA, false)
	require.NoError(t, err)
	return assigned
}

// ──────────────────────────────────────────────────────────────────────────────
// Submit y aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_CreaEnPendingApproval(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())

	req := submitAs(t, uc, coordinador())

	assert.Equal(t, entity.StatusPendingApproval, req.Status)
	assert.Equal(t, entity.RoleCoordinador, req.CreatorRole)
	assert.EqualValues(t, 1, req.Version)
	assert.NotEmpty(t, req.ID)
}

func TestSubmit_TipoInvalido(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())

	_, err := uc.Submit(context.Background(), coordinador(), SubmitInput{
		Type: "MANTENIMIENTO", CustomerID: customerID, RegionID: regionNorte,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApprove_FlujoSimple_UnaFirmaDeServicio(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, coordinador())

	approved, err := uc.Approve(context.Background(), coordinador(), req.ID, "ok")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, approved.Status)
	assert.Equal(t, "coord-1", approved.ApprovedBy)
	require.Len(t, s.approvals, 1)
	assert.Equal(t, entity.ApprovalStageService, s.approvals[0].Stage)
	assert.Equal(t, entity.OutcomeApproved, s.approvals[0].Outcome)
}

func TestApprove_DobleEtapa_CreadaPorVentas(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, vendedor())

	// Servicio llega antes que ventas: error explícito, no éxito silencioso.
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrAwaitingSalesApproval)

	// Firma de ventas: la solicitud sigue en PENDING_APPROVAL.
	afterSales, err := uc.Approve(context.Background(), vendedor(), req.ID, "margen revisado")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingApproval, afterSales.Status)
	assert.Empty(t, afterSales.ApprovedBy)

	// Segunda firma de ventas no procede: la etapa pendiente ya es SERVICE.
	_, err = uc.Approve(context.Background(), vendedor(), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// Firma de servicio: APPROVED.
	final, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, final.Status)
	assert.Equal(t, "coord-1", final.ApprovedBy)

	require.Len(t, s.approvals, 2)
	assert.Equal(t, entity.ApprovalStageSales, s.approvals[0].Stage)
	assert.Equal(t, entity.ApprovalStageService, s.approvals[1].Stage)
}

func TestApprove_FirmaDeVentasTambienSerializa(t *testing.T) {
	// El self-loop de ventas incrementa la versión: dos firmas concurrentes de la
	// misma etapa no pueden ganar ambas.
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, vendedor())

	afterSales, err := uc.Approve(context.Background(), vendedor(), req.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, req.Version+1, afterSales.Version)
}

func TestReject_ComentarioObligatorio(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, coordinador())

	_, err := uc.Reject(context.Background(), coordinador(), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, s.approvals, "un rechazo inválido no deja registro")
}

func TestReject_EsTerminal(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, coordinador())

	rejected, err := uc.Reject(context.Background(), coordinador(), req.ID, "zona sin cobertura")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rejected.Status)

	// Ninguna operación posterior revive la solicitud.
	_, err = uc.Approve(context.Background(), coordinador(), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.Assign(context.Background(), coordinador(), req.ID, techA, false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación
// ──────────────────────────────────────────────────────────────────────────────

func TestAssign_AutoEligeAlMenosCargado(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime.Add(-48*time.Hour))
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime.Add(-24*time.Hour))

	// techA ya carga una solicitud abierta.
	busy := toAssigned(t, uc, s)
	require.Equal(t, techA, busy.TechnicianID)

	req := submitAs(t, uc, coordinador())
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)

	assigned, err := uc.Assign(context.Background(), coordinador(), req.ID, "", true)
	require.NoError(t, err)
	assert.Equal(t, techB, assigned.TechnicianID, "auto debe elegir al técnico con menos solicitudes abiertas")
	assert.Equal(t, entity.StatusAssigned, assigned.Status)

	last := s.assignments[len(s.assignments)-1]
	assert.True(t, last.Auto)
	assert.Empty(t, last.PreviousTechnicianID)
}

func TestAssign_AutoDesempataPorAntiguedad(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime.Add(-24*time.Hour))
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime.Add(-48*time.Hour))

	req := submitAs(t, uc, coordinador())
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)

	assigned, err := uc.Assign(context.Background(), coordinador(), req.ID, "", true)
	require.NoError(t, err)
	assert.Equal(t, techA, assigned.TechnicianID, "a igual carga gana el registro más antiguo")
}

func TestAssign_AutoSinElegibles(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	// Único técnico de la región está inactivo.
	seedTechnician(s, techA, regionNorte, entity.TechnicianInactive, baseTime)

	req := submitAs(t, uc, coordinador())
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)

	_, err = uc.Assign(context.Background(), coordinador(), req.ID, "", true)
	assert.ErrorIs(t, err, domain.ErrIneligibleTechnician)

	// La solicitud queda en APPROVED, lista para reintento manual.
	current, err := uc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, current.Status)
	assert.Empty(t, current.TechnicianID)
}

func TestAssign_ManualFueraDeRegion(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techB, regionSur, entity.TechnicianActive, baseTime)

	req := submitAs(t, uc, coordinador())
	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)

	_, err = uc.Assign(context.Background(), coordinador(), req.ID, techB, false)
	assert.ErrorIs(t, err, domain.ErrIneligibleTechnician)
}

func TestAssign_RolSinPrivilegio(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())

	_, err := uc.Assign(context.Background(), vendedor(), "cualquiera", techA, false)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reasignación
// ──────────────────────────────────────────────────────────────────────────────

func TestReassign_MismoTecnicoEsNoOp(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	reason := entity.ReassignReason{Code: entity.ReasonWorkloadBalancing}
	_, err := uc.Reassign(context.Background(), coordinador(), req.ID, techA, reason, false)
	assert.ErrorIs(t, err, domain.ErrNoOpReassignment)
}

func TestReassign_MismoTecnicoConOverride(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	reason := entity.ReassignReason{Code: entity.ReasonCustomerRequest}
	result, err := uc.Reassign(context.Background(), coordinador(), req.ID, techA, reason, true)
	require.NoError(t, err)
	assert.Equal(t, techA, result.TechnicianID)
	assert.Equal(t, entity.StatusAssigned, result.Status, "reasignar no cambia el estado")
}

func TestReassign_RazonOtherExigeNota(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.Reassign(context.Background(), coordinador(), req.ID, techB,
		entity.ReassignReason{Code: entity.ReasonOther}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Reassign(context.Background(), coordinador(), req.ID, techB,
		entity.ReassignReason{Code: entity.ReasonOther, Note: "cliente pidió al técnico de la visita anterior"}, false)
	assert.NoError(t, err)
}

func TestReassign_RazonOmitidaConRequisitoActivo(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.Reassign(context.Background(), coordinador(), req.ID, techB, entity.ReassignReason{}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReassign_CierraSesionAbiertaDelSaliente(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)

	*clock = baseTime.Add(45 * time.Minute)
	reason := entity.ReassignReason{Code: entity.ReasonTechnicianUnavailable}
	result, err := uc.Reassign(context.Background(), coordinador(), req.ID, techB, reason, false)
	require.NoError(t, err)

	assert.Equal(t, techB, result.TechnicianID)
	assert.Equal(t, entity.StatusInProgress, result.Status, "reasignar preserva IN_PROGRESS")

	// La sesión del saliente quedó cerrada administrativamente.
	require.Len(t, s.sessions, 1)
	closed := s.sessions[0]
	require.NotNil(t, closed.EndedAt)
	assert.True(t, closed.AdminClosed)
	assert.Equal(t, entity.SessionCloseReassigned, closed.CloseReason)
	assert.EqualValues(t, 45, closed.DurationMinutes)

	// El evento registra al técnico anterior.
	last := s.assignments[len(s.assignments)-1]
	assert.Equal(t, techA, last.PreviousTechnicianID)
	assert.Equal(t, techB, last.NewTechnicianID)
	assert.Equal(t, entity.ReasonTechnicianUnavailable, last.ReasonCode)
}

func TestReassign_EnProgresoElEntrantePuedeTerminarElTrabajo(t *testing.T) {
	// Una reasignación en pleno trabajo no debe dejar la solicitud varada: el
	// entrante abre su propia sesión, la cierra y el ciclo llega a COMPLETED.
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)

	*clock = baseTime.Add(30 * time.Minute)
	_, err = uc.Reassign(context.Background(), coordinador(), req.ID, techB,
		entity.ReassignReason{Code: entity.ReasonTechnicianUnavailable}, false)
	require.NoError(t, err)

	// El entrante retoma: startWork es self-loop en IN_PROGRESS.
	*clock = baseTime.Add(40 * time.Minute)
	session, err := uc.StartWork(context.Background(), tecnico(techB), req.ID)
	require.NoError(t, err)
	assert.Equal(t, techB, session.TechnicianID)

	current, err := uc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, current.Status)

	// Sigue habiendo a lo sumo una sesión abierta por solicitud.
	_, err = uc.StartWork(context.Background(), tecnico(techB), req.ID)
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyOpen)

	*clock = baseTime.Add(70 * time.Minute)
	closed, err := uc.StopWork(context.Background(), tecnico(techB), req.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 30, closed.DurationMinutes)

	final, err := uc.Acknowledge(context.Background(), coordinador(), req.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)
}

func TestReassign_RelojDesfasadoAnotaElAjuste(t *testing.T) {
	// El cierre administrativo con reloj desfasado sintetiza duración cero y lo
	// deja anotado en la sesión en vez de inventar un cero silencioso.
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)

	*clock = baseTime.Add(-3 * time.Minute)
	_, err = uc.Reassign(context.Background(), coordinador(), req.ID, techB,
		entity.ReassignReason{Code: entity.ReasonTechnicianUnavailable}, false)
	require.NoError(t, err)

	require.Len(t, s.sessions, 1)
	closed := s.sessions[0]
	require.NotNil(t, closed.EndedAt)
	assert.EqualValues(t, 0, closed.DurationMinutes)
	assert.True(t, closed.AdminClosed)
	assert.Contains(t, closed.Notes, "desfase de reloj")
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesiones de trabajo
// ──────────────────────────────────────────────────────────────────────────────

func TestStartWork_SoloElTecnicoAsignado(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techB), req.ID)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	session, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)
	assert.Equal(t, techA, session.TechnicianID)
	assert.Nil(t, session.EndedAt)

	current, err := uc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, current.Status)
}

func TestStopWork_CalculaDuracion(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)

	*clock = baseTime.Add(95 * time.Minute)
	session, err := uc.StopWork(context.Background(), tecnico(techA), req.ID, "cartucho reemplazado")
	require.NoError(t, err)

	assert.EqualValues(t, 95, session.DurationMinutes)
	assert.Equal(t, "cartucho reemplazado", session.Notes)
	assert.False(t, session.AdminClosed)

	current, err := uc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusWorkCompleted, current.Status)
}

func TestStopWork_SinSesionAbierta(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)
	*clock = baseTime.Add(10 * time.Minute)
	_, err = uc.StopWork(context.Background(), tecnico(techA), req.ID, "")
	require.NoError(t, err)

	// Segundo stop: el estado ya es WORK_COMPLETED.
	_, err = uc.StopWork(context.Background(), tecnico(techA), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStopWork_RelojDesfasado(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)

	// El reloj retrocede: duración no positiva, el cierre se rechaza.
	*clock = baseTime.Add(-2 * time.Minute)
	_, err = uc.StopWork(context.Background(), tecnico(techA), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrClockSkew)

	open, err := (&fakeSessionRepo{s}).GetOpenByRequest(req.ID)
	require.NoError(t, err)
	assert.NotNil(t, open, "la sesión sigue abierta tras el rechazo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre y lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestAcknowledge_CierraLaSolicitud(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)
	*clock = baseTime.Add(30 * time.Minute)
	_, err = uc.StopWork(context.Background(), tecnico(techA), req.ID, "")
	require.NoError(t, err)

	// El técnico no puede dar el acta de cierre.
	_, err = uc.Acknowledge(context.Background(), tecnico(techA), req.ID, "")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	final, err := uc.Acknowledge(context.Background(), coordinador(), req.ID, "cliente conforme")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, final.Status)

	last := s.approvals[len(s.approvals)-1]
	assert.Equal(t, entity.ApprovalStageClosure, last.Stage)
	assert.Equal(t, entity.OutcomeCompleted, last.Outcome)
}

func TestGetHistory_AgrupaElRastroCompleto(t *testing.T) {
	s := newFakeStore()
	uc, clock := newTestEngine(s, defaultOpts())
	seedTechnician(s, techA, regionNorte, entity.TechnicianActive, baseTime)
	seedTechnician(s, techB, regionNorte, entity.TechnicianActive, baseTime)
	req := toAssigned(t, uc, s)

	_, err := uc.StartWork(context.Background(), tecnico(techA), req.ID)
	require.NoError(t, err)
	*clock = baseTime.Add(20 * time.Minute)
	_, err = uc.Reassign(context.Background(), coordinador(), req.ID, techB,
		entity.ReassignReason{Code: entity.ReasonSkillMismatch}, false)
	require.NoError(t, err)

	hist, err := uc.GetHistory(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, hist.Approvals, 1)
	assert.Len(t, hist.Assignments, 2)
	assert.Len(t, hist.Sessions, 1)
}

func TestGet_NoExiste(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())

	_, err := uc.Get(context.Background(), "99999999-9999-4999-8999-999999999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateVersioned_PerdedorRecibeConflicto(t *testing.T) {
	s := newFakeStore()
	uc, _ := newTestEngine(s, defaultOpts())
	req := submitAs(t, uc, coordinador())

	// Otro actor gana la carrera: la versión almacenada avanza por fuera.
	s.requests[req.ID].Version++

	_, err := uc.Approve(context.Background(), coordinador(), req.ID, "")
	assert.NoError(t, err, "el relector ve la versión nueva y no conflictúa")

	// Carrera real: el caso de uso escribe con una versión ya superada.
	stale := cloneRequest(s.requests[req.ID])
	stale.Version--
	err = (&fakeRequestRepo{s}).UpdateVersioned(stale)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}
