package service

import (
	"time"

	"task_manager/internal/models"
)

// RegisterInput is the registration payload. Role is optional; only "admin" is honored.
type RegisterInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6,maxbytes=72"`
	Role     string
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginResult is the issued session token plus the public profile.
type LoginResult struct {
	Token string
	User  models.PublicUser
}

// CreateTaskInput carries the fields accepted at task creation.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string // optional; defaults to Pending
}

// LogFilter supports audit history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "REGISTER", "LOGIN", "TASK_CREATE", "TASK_UPDATE", "TASK_DELETE"
}
