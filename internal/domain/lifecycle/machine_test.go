package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
	"github.com/tu-usuario/servitec-pro/internal/domain/lifecycle"
)

// allStatuses cubre todo el espacio de estados para los tests de cierre.
var allStatuses = []string{
	entity.StatusDraft,
	entity.StatusPendingApproval,
	entity.StatusApproved,
	entity.StatusAssigned,
	entity.StatusInProgress,
	entity.StatusWorkCompleted,
	entity.StatusCompleted,
	entity.StatusRejected,
}

var allOps = []lifecycle.Operation{
	lifecycle.OpSubmit,
	lifecycle.OpApproveSales,
	lifecycle.OpApprove,
	lifecycle.OpReject,
	lifecycle.OpAssign,
	lifecycle.OpReassign,
	lifecycle.OpStartWork,
	lifecycle.OpStopWork,
	lifecycle.OpAcknowledge,
}

// TestNext_CaminoFeliz recorre el flujo completo de una solicitud creada por
// un rol no comercial: submit → approve → assign → startWork → stopWork → ack.
func TestNext_CaminoFeliz(t *testing.T) {
	pasos := []struct {
		op       lifecycle.Operation
		esperado string
	}{
		{lifecycle.OpSubmit, entity.StatusPendingApproval},
		{lifecycle.OpApprove, entity.StatusApproved},
		{lifecycle.OpAssign, entity.StatusAssigned},
		{lifecycle.OpStartWork, entity.StatusInProgress},
		{lifecycle.OpStopWork, entity.StatusWorkCompleted},
		{lifecycle.OpAcknowledge, entity.StatusCompleted},
	}

	estado := entity.StatusDraft
	for _, p := range pasos {
		siguiente, err := lifecycle.Next(estado, p.op)
		require.NoError(t, err, "la operación %s debe ser válida desde %s", p.op, estado)
		assert.Equal(t, p.esperado, siguiente)
		estado = siguiente
	}
}

// TestNext_AprobacionVentasEsSelfLoop: la firma de ventas agota su etapa sin
// cambiar el estado; la solicitud sigue PENDING_APPROVAL esperando a servicio.
func TestNext_AprobacionVentasEsSelfLoop(t *testing.T) {
	siguiente, err := lifecycle.Next(entity.StatusPendingApproval, lifecycle.OpApproveSales)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingApproval, siguiente)
}

// TestNext_StartWorkEnProgresoEsSelfLoop: tras una reasignación en pleno
// trabajo el técnico entrante retoma con startWork sin cambiar el estado.
func TestNext_StartWorkEnProgresoEsSelfLoop(t *testing.T) {
	siguiente, err := lifecycle.Next(entity.StatusInProgress, lifecycle.OpStartWork)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, siguiente)
}

// TestNext_ReasignacionConservaEstado: reasignar es self-loop tanto en ASSIGNED
// como en IN_PROGRESS.
func TestNext_ReasignacionConservaEstado(t *testing.T) {
	for _, estado := range []string{entity.StatusAssigned, entity.StatusInProgress} {
		siguiente, err := lifecycle.Next(estado, lifecycle.OpReassign)
		require.NoError(t, err)
		assert.Equal(t, estado, siguiente, "reasignar no debe cambiar el estado %s", estado)
	}
}

// TestNext_EstadosTerminalesNoAceptanOperaciones: ninguna operación sale de
// COMPLETED ni de REJECTED.
func TestNext_EstadosTerminalesNoAceptanOperaciones(t *testing.T) {
	for _, terminal := range []string{entity.StatusCompleted, entity.StatusRejected} {
		for _, op := range allOps {
			_, err := lifecycle.Next(terminal, op)
			assert.ErrorIs(t, err, domain.ErrInvalidTransition,
				"%s desde %s debería ser transición inválida", op, terminal)
		}
	}
}

// TestNext_OperacionesFueraDeEstado valida un muestreo de aristas prohibidas.
func TestNext_OperacionesFueraDeEstado(t *testing.T) {
	casos := []struct {
		estado string
		op     lifecycle.Operation
	}{
		{entity.StatusDraft, lifecycle.OpApprove},
		{entity.StatusDraft, lifecycle.OpAssign},
		{entity.StatusPendingApproval, lifecycle.OpStartWork},
		{entity.StatusApproved, lifecycle.OpStopWork},
		{entity.StatusApproved, lifecycle.OpReassign},
		{entity.StatusAssigned, lifecycle.OpApprove},
		{entity.StatusAssigned, lifecycle.OpStopWork},
		{entity.StatusInProgress, lifecycle.OpAssign},
		{entity.StatusWorkCompleted, lifecycle.OpStartWork},
		{entity.StatusWorkCompleted, lifecycle.OpReject},
	}
	for _, c := range casos {
		_, err := lifecycle.Next(c.estado, c.op)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition,
			"%s desde %s debería fallar", c.op, c.estado)
	}
}

// TestNext_CierreDelEspacioDeEstados: para toda combinación estado×operación el
// resultado o es error o es un estado del conjunto definido; nunca un estado
// fuera de la tabla.
func TestNext_CierreDelEspacioDeEstados(t *testing.T) {
	conocidos := make(map[string]bool, len(allStatuses))
	for _, s := range allStatuses {
		conocidos[s] = true
	}
	for _, estado := range allStatuses {
		for _, op := range allOps {
			siguiente, err := lifecycle.Next(estado, op)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				continue
			}
			assert.True(t, conocidos[siguiente],
				"%s + %s produjo un estado desconocido: %s", estado, op, siguiente)
		}
	}
}
