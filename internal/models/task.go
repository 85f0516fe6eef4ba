package models

import (
	"strings"
	"time"
)

// DefaultTaskStatus is assigned when a task is created without a status.
const DefaultTaskStatus = "Pending"

type Task struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"` // owner, immutable
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"` // free-form
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// TaskPatch carries the fields of a partial update; nil means "leave as is".
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// Normalized trims a provided title.
func (p TaskPatch) Normalized() TaskPatch {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	return p
}

// TaskFilter narrows task listings. An empty OwnerID selects every task.
type TaskFilter struct {
	OwnerID string
}
