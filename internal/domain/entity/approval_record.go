package entity

import "time"

// Etapas y resultados de aprobación. Los registros son inmutables: una
// corrección es un registro nuevo, nunca una edición.
const (
	ApprovalStageSales   = "SALES"
	ApprovalStageService = "SERVICE"
	ApprovalStageClosure = "CLOSURE" // acta de cierre (acknowledgeCompletion)

	OutcomeApproved  = "APPROVED"
	OutcomeRejected  = "REJECTED"
	OutcomeCompleted = "COMPLETED"
)

// ApprovalRecord es una entrada del historial de aprobaciones de una solicitud.
// Para solicitudes creadas por ventas existen dos registros APPROVED (etapa
// SALES y luego SERVICE) antes de llegar a APPROVED.
type ApprovalRecord struct {
	ID           string
	RequestID    string
	ApproverID   string
	ApproverRole string // rol del aprobador al momento de firmar
	Stage        string // SALES, SERVICE, CLOSURE
	Outcome      string // APPROVED, REJECTED, COMPLETED
	Comment      string
	CreatedAt    time.Time
}
