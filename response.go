package task_manager

import "task_manager/internal/models"

// Wire envelopes shared by the HTTP handlers and pkg/client.

// Payload types, re-exported so importers outside this module can name them.
type (
	User       = models.PublicUser
	Task       = models.Task
	Role       = models.Role
	AuditEvent = models.AuditEvent
)

const (
	RoleUser          = models.RoleUser
	RoleAdmin         = models.RoleAdmin
	DefaultTaskStatus = models.DefaultTaskStatus
)

// MessageResponse is the body of acknowledgments and simple errors.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AuditListResponse is the body of GET /api/v1/audit.
type AuditListResponse struct {
	Count  int                 `json:"count"`
	Events []models.AuditEvent `json:"events"`
}
