// Package testserver runs an in-memory stand-in for the remote project/task/user
// API so clients can be exercised end to end.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rpggio/taskdesk/internal/domain/record"
)

// Signing key for issued tokens. Clients never verify it.
var signingKey = []byte("testserver-signing-key")

// Call is one request the server received.
type Call struct {
	Method    string
	Path      string
	Query     string
	RequestID string
	Auth      string
}

type failure struct {
	status  int
	message string
}

// TestServer is the fake API.
type TestServer struct {
	Server *httptest.Server

	mu         sync.Mutex
	now        func() time.Time
	wrap       bool
	seq        int
	users      []*userRec
	projects   []*projectRec
	tasks      []*taskRec
	tokens     map[string]string
	calls      []Call
	failures   map[string]failure
	gates      map[string]chan struct{}
	lastUpload *Upload
}

// Upload is the last multipart project form the server received.
type Upload struct {
	Fields map[string]string
	Files  map[string][]byte
}

type userRec struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Password  string
	CreatedAt time.Time
}

type projectRec struct {
	ID          string
	Name        string
	Description string
	Status      string
	Manager     string
	Team        []string
	Files       []record.Attachment
	CreatedAt   time.Time
}

type taskRec struct {
	ID          string
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Project     string
	AssignedTo  string
	CreatedAt   time.Time
}

// Option configures the server.
type Option func(*TestServer)

// WithEnvelope wraps every successful response body in {"data": ...}.
func WithEnvelope() Option {
	return func(ts *TestServer) { ts.wrap = true }
}

// New starts the server and stops it when t finishes.
func New(t testing.TB, opts ...Option) *TestServer {
	t.Helper()

	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	ts := &TestServer{
		tokens:   map[string]string{},
		failures: map[string]failure{},
		gates:    map[string]chan struct{}{},
	}
	ts.now = func() time.Time {
		ts.seq++
		return base.Add(time.Duration(ts.seq) * time.Minute)
	}
	for _, opt := range opts {
		opt(ts)
	}

	ts.Server = httptest.NewServer(ts.routes())
	t.Cleanup(ts.Server.Close)
	return ts
}

// URL is the API root.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

func (ts *TestServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(ts.record)

	r.Post("/auth/login", ts.login)
	r.Post("/auth/register", ts.register)

	r.Group(func(r chi.Router) {
		r.Use(ts.authenticate)

		r.Get("/dashboard/overview", ts.overview)

		r.Get("/projects", ts.listProjects)
		r.Post("/projects", ts.createProject)
		r.Get("/projects/{id}", ts.getProject)
		r.Put("/projects/{id}", ts.updateProject)
		r.Delete("/projects/{id}", ts.deleteProject)
		r.Get("/projects/{id}/tasks", ts.listProjectTasks)

		r.Get("/tasks", ts.listTasks)
		r.Post("/tasks", ts.createTask)
		r.Get("/tasks/assigned/{userID}", ts.listAssigned)
		r.Get("/tasks/{id}", ts.getTask)
		r.Put("/tasks/{id}", ts.updateTask)
		r.Delete("/tasks/{id}", ts.deleteTask)

		r.Get("/users", ts.listUsers)
		r.Get("/users/{id}", ts.getUser)
		r.Put("/users/{id}/role", ts.updateUser)
		r.Delete("/users/{id}", ts.deleteUser)
	})
	return r
}

// record logs the call, then applies any injected failure or hold.
func (ts *TestServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		ts.mu.Lock()
		ts.calls = append(ts.calls, Call{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			RequestID: r.Header.Get("X-Request-ID"),
			Auth:      r.Header.Get("Authorization"),
		})
		fail, failing := ts.failures[key]
		delete(ts.failures, key)
		gate := ts.gates[key]
		delete(ts.gates, key)
		ts.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if failing {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ts *TestServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		ts.mu.Lock()
		_, known := ts.tokens[token]
		ts.mu.Unlock()
		if !ok || !known {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Calls returns every request received so far.
func (ts *TestServer) Calls() []Call {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return slices.Clone(ts.calls)
}

// CallCount counts requests whose method matches and whose path starts with prefix.
func (ts *TestServer) CallCount(method, prefix string) int {
	n := 0
	for _, c := range ts.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// FailNext makes the next request to method+path answer status with message.
func (ts *TestServer) FailNext(method, path string, status int, message string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.failures[method+" "+path] = failure{status: status, message: message}
}

// HoldNext blocks the next request to method+path until the returned func is called.
func (ts *TestServer) HoldNext(method, path string) (release func()) {
	ch := make(chan struct{})
	ts.mu.Lock()
	ts.gates[method+" "+path] = ch
	ts.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// RevokeTokens invalidates every issued token.
func (ts *TestServer) RevokeTokens() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tokens = map[string]string{}
}

// LastUpload returns the last multipart project form received.
func (ts *TestServer) LastUpload() *Upload {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastUpload
}

// AddUser seeds an account and returns its id.
func (ts *TestServer) AddUser(name, email, password, role string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.addUserLocked(name, email, password, role).ID
}

func (ts *TestServer) addUserLocked(name, email, password, role string) *userRec {
	u := &userRec{
		ID:        ts.nextID("user"),
		Name:      name,
		Email:     email,
		Role:      role,
		Password:  password,
		CreatedAt: ts.now(),
	}
	ts.users = append(ts.users, u)
	return u
}

// ProjectSeed describes a seeded project.
type ProjectSeed struct {
	Name        string
	Description string
	Status      string
	Manager     string
	Team        []string
}

// AddProject seeds a project and returns its id.
func (ts *TestServer) AddProject(p ProjectSeed) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if p.Status == "" {
		p.Status = "Active"
	}
	rec := &projectRec{
		ID:          ts.nextID("project"),
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		Manager:     p.Manager,
		Team:        slices.Clone(p.Team),
		CreatedAt:   ts.now(),
	}
	ts.projects = append(ts.projects, rec)
	return rec.ID
}

// TaskSeed describes a seeded task.
type TaskSeed struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     time.Time
	Project     string
	AssignedTo  string
}

// AddTask seeds a task and returns its id.
func (ts *TestServer) AddTask(s TaskSeed) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if s.Status == "" {
		s.Status = "Pending"
	}
	if s.Priority == "" {
		s.Priority = "Medium"
	}
	rec := &taskRec{
		ID:          ts.nextID("task"),
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status,
		Priority:    s.Priority,
		Project:     s.Project,
		AssignedTo:  s.AssignedTo,
		CreatedAt:   ts.now(),
	}
	if !s.DueDate.IsZero() {
		due := s.DueDate
		rec.DueDate = &due
	}
	ts.tasks = append(ts.tasks, rec)
	return rec.ID
}

// RemoveTask deletes a task behind the client's back.
func (ts *TestServer) RemoveTask(id string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tasks = slices.DeleteFunc(ts.tasks, func(t *taskRec) bool { return t.ID == id })
}

// IssueToken signs a token for userID as if the user had logged in.
func (ts *TestServer) IssueToken(userID string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.issueLocked(userID)
}

func (ts *TestServer) issueLocked(userID string) string {
	ts.seq++
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"jti": fmt.Sprintf("t%d", ts.seq),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	ts.tokens[token] = userID
	return token
}

func (ts *TestServer) nextID(prefix string) string {
	ts.seq++
	return fmt.Sprintf("%s-%03d", prefix, ts.seq)
}

func (ts *TestServer) writeJSON(w http.ResponseWriter, status int, v any) {
	if ts.wrap {
		v = map[string]any{"data": v}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
