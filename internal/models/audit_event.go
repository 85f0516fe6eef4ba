package models

import "time"

// Audit event types.
const (
	EventRegister   = "REGISTER"
	EventLogin      = "LOGIN"
	EventTaskCreate = "TASK_CREATE"
	EventTaskUpdate = "TASK_UPDATE"
	EventTaskDelete = "TASK_DELETE"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`                 // REGISTER | LOGIN | TASK_CREATE | TASK_UPDATE | TASK_DELETE
	ActorID    string    `json:"actor_id,omitempty"`   // user who acted
	SubjectID  string    `json:"subject_id,omitempty"` // user or task acted upon
	Metadata   any       `json:"metadata,omitempty"`
}
