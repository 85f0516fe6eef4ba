package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task_manager"
	"task_manager/internal/models"
	"task_manager/internal/service"
)

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers_RegisterAndLogin(t *testing.T) {
	profile := models.PublicUser{ID: "u42", Name: "Ann", Email: "ann@example.com", Role: models.RoleUser}
	auth := &mockAuth{
		registerUser: profile,
		loginResult:  service.LoginResult{Token: "tok123", User: profile},
	}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	// register success
	w := postJSON(t, r, "/api/v1/auth/register", `{"name":"Ann","email":"ann@example.com","password":"secret1","role":"admin"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status=%d, body=%s", w.Code, w.Body.String())
	}
	var u models.PublicUser
	_ = json.Unmarshal(w.Body.Bytes(), &u)
	if u.ID != "u42" || u.Name != "Ann" {
		t.Fatalf("unexpected profile: %+v", u)
	}
	if auth.lastRegister.Role != "admin" || auth.lastRegister.Password != "secret1" {
		t.Fatalf("service got %+v", auth.lastRegister)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatalf("response must not mention password: %s", w.Body.String())
	}

	// login success
	w = postJSON(t, r, "/api/v1/auth/login", `{"email":"ann@example.com","password":"secret1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d, body=%s", w.Code, w.Body.String())
	}
	var lr task_manager.LoginResponse
	_ = json.Unmarshal(w.Body.Bytes(), &lr)
	if lr.Token != "tok123" || lr.User.ID != "u42" {
		t.Fatalf("unexpected login response: %+v", lr)
	}

	// login invalid body → 400
	w = postJSON(t, r, "/api/v1/auth/login", `{"email":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		auth       *mockAuth
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "register conflict",
			path:       "/api/v1/auth/register",
			auth:       &mockAuth{registerErr: &service.Error{Kind: service.ErrConflict, Msg: "Email in use"}},
			wantStatus: http.StatusConflict,
			wantMsg:    "Email in use",
		},
		{
			name: "register validation",
			path: "/api/v1/auth/register",
			auth: &mockAuth{registerErr: &service.Error{
				Kind: service.ErrValidation, Msg: "validation failed",
				Fields: []service.FieldError{{Field: "email", Message: "must be a valid email"}},
			}},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "validation failed",
		},
		{
			name:       "login invalid credentials",
			path:       "/api/v1/auth/login",
			auth:       &mockAuth{loginErr: &service.Error{Kind: service.ErrInvalidCredentials, Msg: "Invalid credentials"}},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "unclassified error hides cause",
			path:       "/api/v1/auth/login",
			auth:       &mockAuth{loginErr: errors.New("sql: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Authorization: tc.auth})

			w := postJSON(t, r, tc.path, `{"name":"A","email":"a@b.io","password":"secret1"}`)
			if w.Code != tc.wantStatus {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}
			var out task_manager.ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Message != tc.wantMsg {
				t.Fatalf("message=%q, want %q", out.Message, tc.wantMsg)
			}
			if tc.wantStatus == http.StatusBadRequest && (len(out.Errors) != 1 || out.Errors[0].Field != "email") {
				t.Fatalf("expected field errors, got %+v", out.Errors)
			}
		})
	}
}
