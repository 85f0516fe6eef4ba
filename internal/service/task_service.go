package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// TaskService runs task CRUD through the access guard.
type TaskService struct {
	tasks    repository.Tasks
	recorder Recorder
}

func NewTaskService(tasks repository.Tasks, rec Recorder) *TaskService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &TaskService{tasks: tasks, recorder: rec}
}

// Create stores a task owned by the caller.
func (s *TaskService) Create(ctx context.Context, caller models.Identity, in CreateTaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, validationError(FieldError{Field: "title", Message: "is required"})
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = models.DefaultTaskStatus
	}

	t := &models.Task{
		UserID:      caller.UserID,
		Title:       title,
		Description: in.Description,
		Status:      status,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.recorder.Record(ctx, models.AuditEvent{
		Type:      models.EventTaskCreate,
		ActorID:   caller.UserID,
		SubjectID: t.ID,
		Metadata:  map[string]any{"title": t.Title},
	})
	return *t, nil
}

// List returns every task for admins and only owned tasks for users.
func (s *TaskService) List(ctx context.Context, caller models.Identity) ([]models.Task, error) {
	tasks, err := s.tasks.List(ctx, listFilter(caller))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// Update applies a partial patch. Ownership never changes.
func (s *TaskService) Update(ctx context.Context, caller models.Identity, id string, p models.TaskPatch) error {
	if _, err := s.authorizedTask(ctx, caller, id); err != nil {
		return err
	}

	p = p.Normalized()
	if p.Title != nil && *p.Title == "" {
		return validationError(FieldError{Field: "title", Message: "must not be empty"})
	}
	if p.IsEmpty() {
		return nil
	}

	if err := s.tasks.Update(ctx, id, p); err != nil {
		// deleted between the lookup and the write
		if errors.Is(err, repository.ErrNotFound) {
			return notFound()
		}
		return fmt.Errorf("update task: %w", err)
	}

	s.recorder.Record(ctx, models.AuditEvent{
		Type:      models.EventTaskUpdate,
		ActorID:   caller.UserID,
		SubjectID: id,
		Metadata:  patchedFields(p),
	})
	return nil
}

// Delete removes a task owned by the caller, or any task for admins.
func (s *TaskService) Delete(ctx context.Context, caller models.Identity, id string) error {
	t, err := s.authorizedTask(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound()
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.recorder.Record(ctx, models.AuditEvent{
		Type:      models.EventTaskDelete,
		ActorID:   caller.UserID,
		SubjectID: id,
		Metadata:  map[string]any{"owner_id": t.UserID},
	})
	return nil
}

// authorizedTask loads a task and applies the guard: unknown ids are 404
// before any ownership check.
func (s *TaskService) authorizedTask(ctx context.Context, caller models.Identity, id string) (*models.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, notFound()
	}
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t == nil {
		return nil, notFound()
	}
	if err := requireAccess(caller, t.UserID); err != nil {
		return nil, err
	}
	return t, nil
}

func patchedFields(p models.TaskPatch) map[string]any {
	fields := make([]string, 0, 3)
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return map[string]any{"fields": fields}
}
