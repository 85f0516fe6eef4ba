package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task_manager/internal/models"

	"github.com/google/uuid"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var _ Tasks = (*TaskRepository)(nil)

const (
	insertTaskSQL = `INSERT INTO tasks (id, user_id, title, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`

	selectTaskColumns = `SELECT id, user_id, title, description, status, created_at, updated_at FROM tasks`
	selectTaskByIDSQL = selectTaskColumns + ` WHERE id = ?`

	// rowid preserves insertion order.
	listTasksOrder = ` ORDER BY rowid ASC`

	deleteTaskSQL = `DELETE FROM tasks WHERE id = ?`
)

// Create inserts a task, filling in ID and timestamps when unset.
func (r *TaskRepository) Create(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, insertTaskSQL,
		t.ID, t.UserID, t.Title, t.Description, t.Status, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert task for user %q: %w", t.UserID, err)
	}
	return nil
}

// GetByID fetches one task. Returns (nil, nil) if not found.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx, selectTaskByIDSQL, id).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select task %q: %w", id, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

// List returns tasks in insertion order, optionally restricted to one owner.
func (r *TaskRepository) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	q := selectTaskColumns
	var args []any
	if f.OwnerID != "" {
		q += " WHERE user_id = ?"
		args = append(args, f.OwnerID)
	}
	q += listTasksOrder

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]models.Task, 0, 16)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

// buildUpdateSQL renders a single UPDATE statement for the provided patch fields.
// updated_at is always bumped.
func buildUpdateSQL(id string, p models.TaskPatch, now time.Time) (string, []any) {
	var (
		sets []string
		args []any
	)
	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now.UTC(), id)

	return "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?", args
}

// Update applies p in one statement; concurrent writers race, last write wins.
func (r *TaskRepository) Update(ctx context.Context, id string, p models.TaskPatch) error {
	q, args := buildUpdateSQL(id, p, time.Now())
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update task %q: %w", id, err)
	}
	return requireAffected(res, id)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTaskSQL, id)
	if err != nil {
		return fmt.Errorf("delete task %q: %w", id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for task %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
