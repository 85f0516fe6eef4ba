package service

import (
	"context"

	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// Authorization covers registration, login and session verification.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (models.PublicUser, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ParseToken(accessToken string) (models.Identity, error)
}

// Tasks is task CRUD scoped by the caller's identity.
type Tasks interface {
	Create(ctx context.Context, caller models.Identity, in CreateTaskInput) (models.Task, error)
	List(ctx context.Context, caller models.Identity) ([]models.Task, error)
	Update(ctx context.Context, caller models.Identity, id string, p models.TaskPatch) error
	Delete(ctx context.Context, caller models.Identity, id string) error
}

// Audit exposes the audit trail to admins.
type Audit interface {
	Events(ctx context.Context, caller models.Identity, f LogFilter) ([]models.AuditEvent, error)
}

// Health reports store readiness.
type Health interface {
	Ready(ctx context.Context) error
}

type Service struct {
	Authorization
	Tasks
	Audit
	Health
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, authCfg AuthConfig, log *logger.Logger) *Service {
	audit := NewAuditService(repos.Audit, log)
	return &Service{
		Authorization: NewAuthService(repos.Users, authCfg, audit),
		Tasks:         NewTaskService(repos.Tasks, audit),
		Audit:         audit,
		Health:        NewHealthService(repos.Pinger),
	}
}
