package lifecycle

import (
	"context"

	"github.com/tu-usuario/servitec-pro/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza que cada operación del ciclo de vida sea una unidad atómica:
// leer estado, validar precondiciones y escribir, aislada de operaciones en conflicto.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		reqRepo repository.ServiceRequestRepository,
		apprRepo repository.ApprovalRepository,
		asgRepo repository.AssignmentRepository,
		sessRepo repository.WorkSessionRepository,
		techRepo repository.TechnicianRepository,
	) error) error
}

// Caller identifica al actor de una operación (extraído del JWT por el transporte).
// TechnicianID va vacío salvo para usuarios con rol tecnico.
type Caller struct {
	UserID       string
	Role         string
	TechnicianID string
}
