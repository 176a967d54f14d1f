package repository

import "github.com/tu-usuario/servitec-pro/internal/domain/entity"

// WorkSessionRepository puerto de persistencia para sesiones de trabajo.
// Create debe traducir la violación del índice único parcial (una sola sesión
// abierta por solicitud) a ErrSessionAlreadyOpen.
type WorkSessionRepository interface {
	Create(session *entity.WorkSession) error
	// GetOpenByRequest devuelve la sesión abierta de la solicitud, o nil si no hay.
	GetOpenByRequest(requestID string) (*entity.WorkSession, error)
	// Close persiste el cierre (EndedAt, duración, notas, marca administrativa).
	Close(session *entity.WorkSession) error
	ListByRequest(requestID string) ([]*entity.WorkSession, error)
}
