package lifecycle

import (
	"github.com/tu-usuario/servitec-pro/internal/domain"
	"github.com/tu-usuario/servitec-pro/internal/domain/entity"
)

// PendingStage deriva la etapa de aprobación pendiente a partir de los registros
// existentes, nunca de un contador almacenado (evita el drift entre contador e
// historial). Solicitudes creadas por ventas exigen firma SALES y luego SERVICE;
// el resto, solo SERVICE.
func PendingStage(req *entity.ServiceRequest, approvals []*entity.ApprovalRecord) string {
	if !entity.IsSalesRole(req.CreatorRole) {
		return entity.ApprovalStageService
	}
	for _, a := range approvals {
		if a.Stage == entity.ApprovalStageSales && a.Outcome == entity.OutcomeApproved {
			return entity.ApprovalStageService
		}
	}
	return entity.ApprovalStageSales
}

// gateCheck decide si el rol del actor puede firmar (aprobar o rechazar) la etapa
// pendiente ahora mismo. Un rol de servicio que llega antes de la firma de ventas
// recibe el error explícito ErrAwaitingSalesApproval, no un éxito silencioso.
func gateCheck(stage, callerRole string) error {
	switch stage {
	case entity.ApprovalStageSales:
		if entity.IsSalesRole(callerRole) {
			return nil
		}
		if entity.IsServiceRole(callerRole) {
			return domain.ErrAwaitingSalesApproval
		}
		return domain.ErrPermissionDenied
	case entity.ApprovalStageService:
		if entity.IsServiceRole(callerRole) {
			return nil
		}
		return domain.ErrPermissionDenied
	}
	return domain.ErrPermissionDenied
}

// CanApprove responde si callerRole puede aprobar/rechazar la solicitud en su
// estado actual de historial. Forma booleana de gateCheck para el transporte.
func CanApprove(req *entity.ServiceRequest, approvals []*entity.ApprovalRecord, callerRole string) bool {
	return gateCheck(PendingStage(req, approvals), callerRole) == nil
}
