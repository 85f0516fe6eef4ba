package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"task_manager/internal/models"
)

var (
	// ErrDuplicateEmail is returned by Users.Create when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned by mutations that matched no row.
	ErrNotFound = errors.New("record not found")
)

// Users persists user records. Lookups return (nil, nil) when nothing matches.
type Users interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Tasks persists task records. GetByID returns (nil, nil) when nothing matches.
type Tasks interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id string, p models.TaskPatch) error
	Delete(ctx context.Context, id string) error
}

// AuditLog is an append-only event store.
type AuditLog interface {
	Append(ctx context.Context, e models.AuditEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error)
}

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Repository struct {
	Users  Users
	Tasks  Tasks
	Audit  AuditLog
	Pinger Pinger
}

// NewRepository builds the SQLite-backed repositories.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Users:  NewUserRepository(db),
		Tasks:  NewTaskRepository(db),
		Audit:  NewAuditSQLite(db),
		Pinger: sqlPinger{db: db},
	}
}

type sqlPinger struct {
	db *sql.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
