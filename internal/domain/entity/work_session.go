package entity

import "time"

// Motivos de cierre administrativo de una sesión.
const (
	SessionCloseReassigned = "REASSIGNED"
)

// WorkSession es un intervalo de trabajo de un técnico sobre una solicitud.
// Invariante: a lo sumo una sesión con EndedAt == nil por solicitud, garantizado
// por índice único parcial en la base de datos, no solo por la aplicación.
type WorkSession struct {
	ID              string
	RequestID       string
	TechnicianID    string
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes int64 // derivada al cerrar; 0 mientras la sesión está abierta
	Notes           string
	AdminClosed     bool   // true si se cerró administrativamente (p. ej. reasignación)
	CloseReason     string // REASSIGNED cuando AdminClosed
}

// Open indica si la sesión sigue abierta.
func (s *WorkSession) Open() bool {
	return s.EndedAt == nil
}
