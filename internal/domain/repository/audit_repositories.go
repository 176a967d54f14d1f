package repository

import "github.com/tu-usuario/servitec-pro/internal/domain/entity"

// ApprovalRepository puerto append-only para el historial de aprobaciones.
// No existe Update ni Delete: las correcciones son registros nuevos.
type ApprovalRepository interface {
	Create(record *entity.ApprovalRecord) error
	ListByRequest(requestID string) ([]*entity.ApprovalRecord, error)
}

// AssignmentRepository puerto append-only para el historial de asignaciones.
type AssignmentRepository interface {
	Create(event *entity.AssignmentEvent) error
	ListByRequest(requestID string) ([]*entity.AssignmentEvent, error)
}
