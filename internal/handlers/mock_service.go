package handlers

import (
	"context"
	"net/http"

	"task_manager/internal/models"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser models.PublicUser
	registerErr  error
	loginResult  service.LoginResult
	loginErr     error
	parseID      models.Identity
	parseErr     error

	lastRegister      service.RegisterInput
	lastLoginEmail    string
	lastLoginPassword string
	lastParseToken    string
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (models.PublicUser, error) {
	m.lastRegister = in
	return m.registerUser, m.registerErr
}
func (m *mockAuth) Login(_ context.Context, email, password string) (service.LoginResult, error) {
	m.lastLoginEmail = email
	m.lastLoginPassword = password
	return m.loginResult, m.loginErr
}
func (m *mockAuth) ParseToken(token string) (models.Identity, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTasks struct {
	created   models.Task
	createErr error
	list      []models.Task
	listErr   error
	updateErr error
	deleteErr error

	lastCaller models.Identity
	lastCreate service.CreateTaskInput
	lastID     string
	lastPatch  models.TaskPatch
	calls      int
}

func (m *mockTasks) Create(_ context.Context, caller models.Identity, in service.CreateTaskInput) (models.Task, error) {
	m.calls++
	m.lastCaller = caller
	m.lastCreate = in
	return m.created, m.createErr
}
func (m *mockTasks) List(_ context.Context, caller models.Identity) ([]models.Task, error) {
	m.calls++
	m.lastCaller = caller
	return m.list, m.listErr
}
func (m *mockTasks) Update(_ context.Context, caller models.Identity, id string, p models.TaskPatch) error {
	m.calls++
	m.lastCaller = caller
	m.lastID = id
	m.lastPatch = p
	return m.updateErr
}
func (m *mockTasks) Delete(_ context.Context, caller models.Identity, id string) error {
	m.calls++
	m.lastCaller = caller
	m.lastID = id
	return m.deleteErr
}

type mockAudit struct {
	resp       []models.AuditEvent
	err        error
	lastCaller models.Identity
	lastFilter service.LogFilter
}

func (m *mockAudit) Events(_ context.Context, caller models.Identity, f service.LogFilter) ([]models.AuditEvent, error) {
	m.lastCaller = caller
	m.lastFilter = f
	return m.resp, m.err
}

type mockHealth struct {
	err error
}

func (m *mockHealth) Ready(context.Context) error { return m.err }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts...)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
