package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"task_manager"
	"task_manager/internal/logger"
	"task_manager/internal/models"
	"task_manager/internal/repository"
	"task_manager/internal/repository/db"
	"task_manager/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var e2eKey = []byte("e2e-secret")

// newE2ERouter wires real services over a temp SQLite database.
func newE2ERouter(t *testing.T) http.Handler {
	t.Helper()
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	services := service.NewService(repository.NewRepository(conn), service.AuthConfig{
		SigningKey: e2eKey,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, logger.Nop())
	return newTestRouter(services)
}

func registerAndLogin(t *testing.T, r http.Handler, name, email, role string) task_manager.LoginResponse {
	t.Helper()
	w := postJSON(t, r, "/api/v1/auth/register",
		`{"name":"`+name+`","email":"`+email+`","password":"secret1","role":"`+role+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}
	w = postJSON(t, r, "/api/v1/auth/login", `{"email":"`+email+`","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}
	var lr task_manager.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &lr); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return lr
}

func createTaskAs(t *testing.T, r http.Handler, token, title string) models.Task {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/v1/tasks", `{"title":"`+title+`"}`, authHeader(token))
	if w.Code != http.StatusCreated {
		t.Fatalf("create %q: %d %s", title, w.Code, w.Body.String())
	}
	var task models.Task
	_ = json.Unmarshal(w.Body.Bytes(), &task)
	return task
}

func listTasksAs(t *testing.T, r http.Handler, token string) []models.Task {
	t.Helper()
	w := doRequest(r, http.MethodGet, "/api/v1/tasks", "", authHeader(token))
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var tasks []models.Task
	_ = json.Unmarshal(w.Body.Bytes(), &tasks)
	return tasks
}

func messageOf(t *testing.T, w interface{ Bytes() []byte }) string {
	t.Helper()
	var out task_manager.ErrorResponse
	_ = json.Unmarshal(w.Bytes(), &out)
	return out.Message
}

func TestE2E_DuplicateEmailConflict(t *testing.T) {
	r := newE2ERouter(t)
	first := registerAndLogin(t, r, "First", "dup@example.com", "")

	w := postJSON(t, r, "/api/v1/auth/register", `{"name":"Second","email":"dup@example.com","password":"other12","role":"admin"}`)
	if w.Code != http.StatusConflict || messageOf(t, w.Body) != "Email in use" {
		t.Fatalf("expected 409 Email in use, got %d %s", w.Code, w.Body.String())
	}

	// first user's record unaffected: first password still works, role unchanged
	again := postJSON(t, r, "/api/v1/auth/login", `{"email":"dup@example.com","password":"secret1"}`)
	var lr task_manager.LoginResponse
	_ = json.Unmarshal(again.Body.Bytes(), &lr)
	if again.Code != http.StatusOK || lr.User.ID != first.User.ID || lr.User.Name != "First" || lr.User.Role != models.RoleUser {
		t.Fatalf("first user changed: %d %+v", again.Code, lr.User)
	}
}

func TestE2E_UniformInvalidCredentials(t *testing.T) {
	r := newE2ERouter(t)
	registerAndLogin(t, r, "Ann", "ann@example.com", "")

	wrong := postJSON(t, r, "/api/v1/auth/login", `{"email":"ann@example.com","password":"nope123"}`)
	unknown := postJSON(t, r, "/api/v1/auth/login", `{"email":"ghost@example.com","password":"nope123"}`)

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
	if messageOf(t, wrong.Body) != "Invalid credentials" {
		t.Fatalf("unexpected message: %s", wrong.Body.String())
	}
}

func TestE2E_GuardAndListFiltering(t *testing.T) {
	r := newE2ERouter(t)
	alice := registerAndLogin(t, r, "Alice", "alice@example.com", "")
	bob := registerAndLogin(t, r, "Bob", "bob@example.com", "user")
	root := registerAndLogin(t, r, "Root", "root@example.com", "admin")

	if root.User.Role != models.RoleAdmin || bob.User.Role != models.RoleUser {
		t.Fatalf("roles: root=%s bob=%s", root.User.Role, bob.User.Role)
	}

	// round trip
	aliceTask := createTaskAs(t, r, alice.Token, "X")
	bobTask := createTaskAs(t, r, bob.Token, "Y")
	mine := listTasksAs(t, r, alice.Token)
	if len(mine) != 1 || mine[0].Title != "X" || mine[0].Status != "Pending" || mine[0].UserID != alice.User.ID {
		t.Fatalf("alice list: %+v", mine)
	}
	if all := listTasksAs(t, r, root.Token); len(all) != 2 || all[0].ID != aliceTask.ID || all[1].ID != bobTask.ID {
		t.Fatalf("admin list: %+v", all)
	}

	// bob cannot touch alice's task
	w := doRequest(r, http.MethodPut, "/api/v1/tasks/"+aliceTask.ID, `{"title":"hacked"}`, authHeader(bob.Token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign update: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodDelete, "/api/v1/tasks/"+aliceTask.ID, "", authHeader(bob.Token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: %d %s", w.Code, w.Body.String())
	}

	// bob on his own task succeeds; ownership is not transferable
	w = doRequest(r, http.MethodPut, "/api/v1/tasks/"+bobTask.ID, `{"status":"Done","user_id":"`+alice.User.ID+`"}`, authHeader(bob.Token))
	if w.Code != http.StatusOK || messageOf(t, w.Body) != "Updated" {
		t.Fatalf("own update: %d %s", w.Code, w.Body.String())
	}
	bobs := listTasksAs(t, r, bob.Token)
	if len(bobs) != 1 || bobs[0].Status != "Done" || bobs[0].UserID != bob.User.ID {
		t.Fatalf("bob after update: %+v", bobs)
	}

	// admin may update and delete anyone's task
	w = doRequest(r, http.MethodPut, "/api/v1/tasks/"+aliceTask.ID, `{"description":"reviewed"}`, authHeader(root.Token))
	if w.Code != http.StatusOK {
		t.Fatalf("admin update: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodDelete, "/api/v1/tasks/"+aliceTask.ID, "", authHeader(root.Token))
	if w.Code != http.StatusOK || messageOf(t, w.Body) != "Deleted" {
		t.Fatalf("admin delete: %d %s", w.Code, w.Body.String())
	}
	if mine := listTasksAs(t, r, alice.Token); len(mine) != 0 {
		t.Fatalf("alice task should be gone: %+v", mine)
	}

	// unknown id is 404 for everyone
	w = doRequest(r, http.MethodDelete, "/api/v1/tasks/"+uuid.NewString(), "", authHeader(bob.Token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: %d", w.Code)
	}

	// audit trail is admin-only
	if w := doRequest(r, http.MethodGet, "/api/v1/audit", "", authHeader(bob.Token)); w.Code != http.StatusForbidden {
		t.Fatalf("audit as user: %d", w.Code)
	}
	w = doRequest(r, http.MethodGet, "/api/v1/audit?type=task_delete", "", authHeader(root.Token))
	var audit task_manager.AuditListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &audit)
	if w.Code != http.StatusOK || audit.Count != 1 || audit.Events[0].SubjectID != aliceTask.ID {
		t.Fatalf("audit: %d %+v", w.Code, audit)
	}
}

func TestE2E_ExpiredTokenIsUnauthenticated(t *testing.T) {
	r := newE2ERouter(t)
	alice := registerAndLogin(t, r, "Alice", "alice@example.com", "")
	task := createTaskAs(t, r, alice.Token, "X")

	past := time.Now().Add(-2 * time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   alice.User.ID,
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
		Email: "alice@example.com",
		Role:  "user",
	}).SignedString(e2eKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for _, rt := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/tasks", ""},
		{http.MethodPost, "/api/v1/tasks", `{"title":"Y"}`},
		{http.MethodPut, "/api/v1/tasks/" + task.ID, `{"title":"Y"}`},
		{http.MethodDelete, "/api/v1/tasks/" + task.ID, ""},
	} {
		w := doRequest(r, rt.method, rt.path, rt.body, authHeader(expired))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with expired token: %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestE2E_EmptyTitleRejected(t *testing.T) {
	r := newE2ERouter(t)
	alice := registerAndLogin(t, r, "Alice", "alice@example.com", "")

	w := doRequest(r, http.MethodPost, "/api/v1/tasks", `{"title":"   ","description":"d"}`, authHeader(alice.Token))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}
	if tasks := listTasksAs(t, r, alice.Token); len(tasks) != 0 {
		t.Fatalf("no task should be persisted: %+v", tasks)
	}
}

func TestE2E_RegisterValidation(t *testing.T) {
	r := newE2ERouter(t)

	w := postJSON(t, r, "/api/v1/auth/register", `{"name":"","email":"bad","password":"123"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var out task_manager.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %+v", out.Errors)
	}
}

func TestE2E_UpdateWithoutBody(t *testing.T) {
	r := newE2ERouter(t)
	alice := registerAndLogin(t, r, "Alice", "alice@example.com", "")
	bob := registerAndLogin(t, r, "Bob", "bob@example.com", "")
	task := createTaskAs(t, r, alice.Token, "X")

	w := doRequest(r, http.MethodPut, "/api/v1/tasks/"+task.ID, "", authHeader(alice.Token))
	if w.Code != http.StatusOK || messageOf(t, w.Body) != "Updated" {
		t.Fatalf("own task: %d %s", w.Code, w.Body.String())
	}
	if w := doRequest(r, http.MethodPut, "/api/v1/tasks/"+task.ID, "", authHeader(bob.Token)); w.Code != http.StatusForbidden {
		t.Fatalf("foreign task: %d", w.Code)
	}
	if w := doRequest(r, http.MethodPut, "/api/v1/tasks/"+uuid.NewString(), "", authHeader(alice.Token)); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: %d", w.Code)
	}
	if mine := listTasksAs(t, r, alice.Token); len(mine) != 1 || mine[0].Title != "X" {
		t.Fatalf("task changed: %+v", mine)
	}
}

func TestE2E_AuthInputEdges(t *testing.T) {
	r := newE2ERouter(t)

	// 40 runes, 80 bytes: over bcrypt's limit
	w := postJSON(t, r, "/api/v1/auth/register",
		`{"name":"A","email":"long@example.com","password":"`+strings.Repeat("é", 40)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("long multibyte password: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/v1/auth/login", `{"email":"not-an-email","password":"secret1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed login email: %d %s", w.Code, w.Body.String())
	}
}
