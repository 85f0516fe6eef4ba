// Package client is a typed Go client for the task manager REST API.
//
// The authenticated session lives on the Client and is passed explicitly; a 401
// on any authenticated call clears it so the caller can send the user back to login.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"task_manager"
)

const apiPrefix = "/api/v1"

var (
	// ErrNoSession is returned by authenticated calls made before Login.
	ErrNoSession = errors.New("client: no active session")
	// ErrSessionExpired is returned when the server rejects the session token.
	// The session has been cleared.
	ErrSessionExpired = errors.New("client: session expired")
)

// APIError is a non-2xx answer other than a session rejection.
type APIError struct {
	Status  int
	Message string
	Fields  []task_manager.FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: %d %s", e.Status, e.Message)
}

// Session is the state kept after a successful login.
type Session struct {
	Token string
	User  task_manager.User
}

// IsAdmin reports whether the session grants admin affordances.
func (s Session) IsAdmin() bool { return s.User.Role == task_manager.RoleAdmin }

type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession restores a previously saved session.
func WithSession(s Session) Option {
	return func(c *Client) { c.session = &s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the active session, if any.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Logout drops the session.
func (c *Client) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterRequest) (task_manager.User, error) {
	var out task_manager.User
	err := c.do(ctx, http.MethodPost, "/auth/register", in, &out, false)
	return out, err
}

// Login authenticates and stores the session on the client.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out task_manager.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return Session{}, err
	}
	s := Session{Token: out.Token, User: out.User}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	return s, nil
}

// TaskInput is the creation payload. Status is optional.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// TaskUpdate carries the fields to change; nil fields are left as they are.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (task_manager.Task, error) {
	var out task_manager.Task
	err := c.do(ctx, http.MethodPost, "/tasks", in, &out, true)
	return out, err
}

func (c *Client) ListTasks(ctx context.Context) ([]task_manager.Task, error) {
	var out []task_manager.Task
	err := c.do(ctx, http.MethodGet, "/tasks", nil, &out, true)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, in TaskUpdate) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), in, nil, true)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, true)
}

// AuditQuery filters the audit trail. Empty fields are omitted.
type AuditQuery struct {
	From string
	To   string
	Type string
}

func (c *Client) AuditEvents(ctx context.Context, q AuditQuery) (task_manager.AuditListResponse, error) {
	v := url.Values{}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	path := "/audit"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out task_manager.AuditListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out, true)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var token string
	if authed {
		s, ok := c.Session()
		if !ok {
			return ErrNoSession
		}
		token = s.Token
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && authed {
		c.clearSession(token)
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// clearSession drops the session only if it still holds the rejected token.
func (c *Client) clearSession(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.Token == token {
		c.session = nil
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body task_manager.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	}
	return apiErr
}
