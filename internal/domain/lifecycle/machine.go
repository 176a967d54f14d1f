package lifecycle

import (
	"fmt"

	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
)

// Operation es una operación del ciclo de vida sobre una solicitud.
type Operation string

// Operaciones del ciclo de vida. OpApproveSales es la primera firma de una
// solicitud creada por ventas: no cambia el estado, solo agota la etapa SALES.
const (
	OpSubmit       Operation = "submit"
	OpApproveSales Operation = "approveSales"
	OpApprove      Operation = "approve"
	OpReject       Operation = "reject"
	OpAssign       Operation = "assign"
	OpReassign     Operation = "reassign"
	OpStartWork    Operation = "startWork"
	OpStopWork     Operation = "stopWork"
	OpAcknowledge  Operation = "acknowledgeCompletion"
)

// transition es una arista permitida de la máquina de estados.
type transition struct {
	From string
	Op   Operation
	To   string
}

// Tabla de transiciones. La reasignación es un self-loop (ASSIGNED e IN_PROGRESS
// se conservan con técnico nuevo), no un estado aparte. COMPLETED y REJECTED son
// terminales: ninguna arista sale de ellos.
var transitions = []transition{
	{From: entity.StatusDraft, Op: OpSubmit, To: entity.StatusPendingApproval},

	{From: entity.StatusPendingApproval, Op: OpApproveSales, To: entity.StatusPendingApproval},
	{From: entity.StatusPendingApproval, Op: OpApprove, To: entity.StatusApproved},
	{From: entity.StatusPendingApproval, Op: OpReject, To: entity.StatusRejected},

	{From: entity.StatusApproved, Op: OpAssign, To: entity.StatusAssigned},
	{From: entity.StatusAssigned, Op: OpReassign, To: entity.StatusAssigned},
	{From: entity.StatusInProgress, Op: OpReassign, To: entity.StatusInProgress},

	// startWork también es self-loop en IN_PROGRESS: tras una reasignación en
	// pleno trabajo (que cierra administrativamente la sesión del saliente) el
	// técnico entrante abre la suya sin retroceder de estado. La unicidad de
	// sesión abierta la garantiza WorkSessionTracker, no esta tabla.
	{From: entity.StatusAssigned, Op: OpStartWork, To: entity.StatusInProgress},
	{From: entity.StatusInProgress, Op: OpStartWork, To: entity.StatusInProgress},
	{From: entity.StatusInProgress, Op: OpStopWork, To: entity.StatusWorkCompleted},

	{From: entity.StatusWorkCompleted, Op: OpAcknowledge, To: entity.StatusCompleted},
}

// Next es la función pura de transición: devuelve el estado resultante de
// aplicar op sobre current, o ErrInvalidTransition si no existe la arista.
// Nadie fuera de RequestLifecycle escribe Status; todos pasan por aquí.
func Next(current string, op Operation) (string, error) {
	for _, t := range transitions {
		if t.From == current && t.Op == op {
			return t.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s desde %s", domain.ErrInvalidTransition, op, current)
}

// Allowed indica si op es válida desde current.
func Allowed(current string, op Operation) bool {
	_, err := Next(current, op)
	return err == nil
}
