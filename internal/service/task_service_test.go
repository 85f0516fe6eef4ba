package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"task_manager/internal/models"
	"task_manager/internal/repository"
)

// memTaskRepo is an in-memory repository.Tasks keeping insertion order.
type memTaskRepo struct {
	tasks []models.Task
	seq   int

	updateCalls int
	deleteCalls int
	updateErr   error
	getErr      error
}

func (m *memTaskRepo) Create(_ context.Context, t *models.Task) error {
	m.seq++
	t.ID = fmt.Sprintf("t%d", m.seq)
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *memTaskRepo) GetByID(_ context.Context, id string) (*models.Task, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memTaskRepo) List(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, t := range m.tasks {
		if f.OwnerID == "" || t.UserID == f.OwnerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTaskRepo) Update(_ context.Context, id string, p models.TaskPatch) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.tasks {
		if m.tasks[i].ID != id {
			continue
		}
		if p.Title != nil {
			m.tasks[i].Title = *p.Title
		}
		if p.Description != nil {
			m.tasks[i].Description = *p.Description
		}
		if p.Status != nil {
			m.tasks[i].Status = *p.Status
		}
		return nil
	}
	return repository.ErrNotFound
}

func (m *memTaskRepo) Delete(_ context.Context, id string) error {
	m.deleteCalls++
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func strPtr(s string) *string { return &s }

var (
	alice = models.Identity{UserID: "alice", Email: "alice@example.com", Role: models.RoleUser}
	bob   = models.Identity{UserID: "bob", Email: "bob@example.com", Role: models.RoleUser}
	admin = models.Identity{UserID: "root", Email: "root@example.com", Role: models.RoleAdmin}
)

func TestTaskService_CreateThenList_RoundTrip(t *testing.T) {
	repo := &memTaskRepo{}
	rec := &recorderSpy{}
	svc := NewTaskService(repo, rec)
	ctx := context.Background()

	created, err := svc.Create(ctx, alice, CreateTaskInput{Title: "  X ", Description: "d"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title != "X" || created.Status != models.DefaultTaskStatus || created.UserID != "alice" {
		t.Fatalf("unexpected task: %+v", created)
	}

	list, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Title != "X" || list[0].Status != "Pending" || list[0].UserID != "alice" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(rec.events) != 1 || rec.events[0].Type != models.EventTaskCreate || rec.events[0].SubjectID != created.ID {
		t.Fatalf("expected TASK_CREATE event, got %+v", rec.events)
	}
}

func TestTaskService_Create_KeepsExplicitStatus(t *testing.T) {
	svc := NewTaskService(&memTaskRepo{}, nil)

	created, err := svc.Create(context.Background(), alice, CreateTaskInput{Title: "X", Status: "In Progress"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != "In Progress" {
		t.Fatalf("status: got %q", created.Status)
	}
}

func TestTaskService_Create_EmptyTitle(t *testing.T) {
	repo := &memTaskRepo{}
	svc := NewTaskService(repo, nil)

	for _, title := range []string{"", "   "} {
		_, err := svc.Create(context.Background(), alice, CreateTaskInput{Title: title})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("title %q: expected ErrValidation, got %v", title, err)
		}
	}
	if len(repo.tasks) != 0 {
		t.Fatalf("no task must be persisted, got %+v", repo.tasks)
	}
}

func TestTaskService_List_FiltersByOwnerForUsers(t *testing.T) {
	repo := &memTaskRepo{}
	svc := NewTaskService(repo, nil)
	ctx := context.Background()

	for _, c := range []models.Identity{alice, bob, alice} {
		if _, err := svc.Create(ctx, c, CreateTaskInput{Title: "task of " + c.UserID}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	mine, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("alice should see 2 tasks, got %d", len(mine))
	}
	for _, task := range mine {
		if task.UserID != "alice" {
			t.Fatalf("foreign task leaked: %+v", task)
		}
	}

	all, err := svc.List(ctx, admin)
	if err != nil {
		t.Fatalf("List admin: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("admin should see all 3 tasks, got %d", len(all))
	}
	if all[0].ID != "t1" || all[2].ID != "t3" {
		t.Fatalf("expected insertion order, got %+v", all)
	}
}

func TestTaskService_List_EmptyIsNonNil(t *testing.T) {
	svc := NewTaskService(&memTaskRepo{}, nil)

	list, err := svc.List(context.Background(), bob)
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v, %v", list, err)
	}
}

func TestTaskService_UpdateDelete_Guard(t *testing.T) {
	tests := []struct {
		name    string
		caller  models.Identity
		wantErr error
	}{
		{"owner", alice, nil},
		{"other user", bob, ErrForbidden},
		{"admin", admin, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &memTaskRepo{}
			svc := NewTaskService(repo, nil)
			ctx := context.Background()

			task, err := svc.Create(ctx, alice, CreateTaskInput{Title: "X"})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			err = svc.Update(ctx, tc.caller, task.ID, models.TaskPatch{Status: strPtr("Done")})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Update: expected %v, got %v", tc.wantErr, err)
			}
			err = svc.Delete(ctx, tc.caller, task.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Delete: expected %v, got %v", tc.wantErr, err)
			}

			if tc.wantErr != nil {
				if repo.updateCalls != 0 || repo.deleteCalls != 0 {
					t.Fatalf("denied caller must not reach the store")
				}
				if repo.tasks[0].Status != models.DefaultTaskStatus {
					t.Fatalf("task mutated by denied caller: %+v", repo.tasks[0])
				}
			} else if len(repo.tasks) != 0 {
				t.Fatalf("task should be deleted, got %+v", repo.tasks)
			}
		})
	}
}

func TestTaskService_UpdateDelete_UnknownID(t *testing.T) {
	svc := NewTaskService(&memTaskRepo{}, nil)
	ctx := context.Background()

	// NotFound wins over Forbidden: the id is checked before ownership.
	if err := svc.Update(ctx, bob, "missing", models.TaskPatch{Title: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, bob, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestTaskService_Update_PatchSemantics(t *testing.T) {
	repo := &memTaskRepo{}
	rec := &recorderSpy{}
	svc := NewTaskService(repo, rec)
	ctx := context.Background()

	task, err := svc.Create(ctx, alice, CreateTaskInput{Title: "X", Description: "keep"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Update(ctx, alice, task.ID, models.TaskPatch{Title: strPtr("  ")}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title: expected ErrValidation, got %v", err)
	}

	if err := svc.Update(ctx, alice, task.ID, models.TaskPatch{}); err != nil {
		t.Fatalf("empty patch: %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("empty patch must not hit the store")
	}

	if err := svc.Update(ctx, alice, task.ID, models.TaskPatch{Title: strPtr(" Y "), Status: strPtr("Done")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := repo.tasks[0]
	if got.Title != "Y" || got.Status != "Done" || got.Description != "keep" || got.UserID != "alice" {
		t.Fatalf("unexpected task after patch: %+v", got)
	}
	last := rec.events[len(rec.events)-1]
	if last.Type != models.EventTaskUpdate || last.SubjectID != task.ID {
		t.Fatalf("expected TASK_UPDATE event, got %+v", last)
	}
}

func TestTaskService_Update_VanishedBetweenReadAndWrite(t *testing.T) {
	repo := &memTaskRepo{}
	svc := NewTaskService(repo, nil)
	ctx := context.Background()

	task, _ := svc.Create(ctx, alice, CreateTaskInput{Title: "X"})
	repo.updateErr = repository.ErrNotFound

	if err := svc.Update(ctx, alice, task.ID, models.TaskPatch{Status: strPtr("Done")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskService_RepoErrorIsUnclassified(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &memTaskRepo{getErr: dbErr}
	svc := NewTaskService(repo, nil)

	err := svc.Delete(context.Background(), admin, "t1")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	var de *Error
	if errors.As(err, &de) {
		t.Fatalf("store failure must not be classified, got %v", de)
	}
}
