package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/taskdesk/internal/domain/record"
)

var (
	roles          = []string{"Admin", "ProjectManager", "TeamMember"}
	projectStatus  = []string{"Active", "Completed"}
	taskStatus     = []string{"Pending", "In Progress", "Completed", "Cancelled"}
	taskPriorities = []string{"Low", "Medium", "High"}
)

type userJSON struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type refJSON struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type projectJSON struct {
	ID             string              `json:"_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Status         string              `json:"status"`
	ProjectManager *refJSON            `json:"projectManager"`
	TeamMembers    []refJSON           `json:"teamMembers"`
	Files          []record.Attachment `json:"files"`
	CreatedAt      time.Time           `json:"createdAt"`
}

type taskJSON struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Project     *refJSON   `json:"project"`
	AssignedTo  *refJSON   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (ts *TestServer) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	u := ts.userByEmail(body.Email)
	if u == nil || u.Password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	ts.writeJSON(w, http.StatusOK, map[string]any{"token": ts.issueLocked(u.ID), "user": renderUser(u)})
}

func (ts *TestServer) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Please add all fields")
		return
	}
	if body.Role == "" {
		body.Role = "TeamMember"
	}
	if !slices.Contains(roles, body.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.userByEmail(body.Email) != nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	u := ts.addUserLocked(body.Name, body.Email, body.Password, body.Role)
	ts.writeJSON(w, http.StatusCreated, map[string]any{"token": ts.issueLocked(u.ID), "user": renderUser(u)})
}

func (ts *TestServer) overview(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	caller := ts.caller(r)

	projects := ts.projects
	tasks := ts.tasks
	if caller.Role == "TeamMember" {
		projects = slices.DeleteFunc(slices.Clone(projects), func(p *projectRec) bool {
			return !slices.Contains(p.Team, caller.ID)
		})
		tasks = slices.DeleteFunc(slices.Clone(tasks), func(t *taskRec) bool {
			return t.AssignedTo != caller.ID
		})
	}

	out := map[string]any{
		"role":           caller.Role,
		"totalProjects":  len(projects),
		"activeProjects": countFunc(projects, func(p *projectRec) bool { return p.Status == "Active" }),
		"totalTasks":     len(tasks),
		"completedTasks": countFunc(tasks, func(t *taskRec) bool { return t.Status == "Completed" }),
		"recentProjects": ts.renderProjects(recent(projects)),
		"recentTasks":    ts.renderTasks(recent(tasks)),
	}
	ts.writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) listProjects(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.writeJSON(w, http.StatusOK, ts.renderProjects(ts.projects))
}

func (ts *TestServer) getProject(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p := ts.project(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	ts.writeJSON(w, http.StatusOK, ts.renderProject(p))
}

type projectBody struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Status         *string   `json:"status"`
	ProjectManager *string   `json:"projectManager"`
	TeamMembers    *[]string `json:"teamMembers"`
	files          []record.Attachment
}

func (ts *TestServer) readProject(w http.ResponseWriter, r *http.Request) (projectBody, bool) {
	var body projectBody
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return body, decode(w, r, &body)
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return body, false
	}
	upload := &Upload{Fields: map[string]string{}, Files: map[string][]byte{}}
	for key, values := range r.MultipartForm.Value {
		upload.Fields[key] = values[0]
	}
	field := func(key string) *string {
		if v, ok := upload.Fields[key]; ok {
			return &v
		}
		return nil
	}
	body.Name = field("name")
	body.Description = field("description")
	body.Status = field("status")
	body.ProjectManager = field("projectManager")
	if raw, ok := upload.Fields["teamMembers"]; ok {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid team members")
			return body, false
		}
		body.TeamMembers = &ids
	}
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid file")
			return body, false
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid file")
			return body, false
		}
		upload.Files[header.Filename] = data
		body.files = append(body.files, record.Attachment{Name: header.Filename, URL: "/uploads/" + header.Filename})
	}

	ts.mu.Lock()
	ts.lastUpload = upload
	ts.mu.Unlock()
	return body, true
}

func (ts *TestServer) createProject(w http.ResponseWriter, r *http.Request) {
	body, ok := ts.readProject(w, r)
	if !ok {
		return
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" {
		writeError(w, http.StatusBadRequest, "Project name is required")
		return
	}
	if body.Status == nil || *body.Status == "" {
		active := "Active"
		body.Status = &active
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	p := &projectRec{ID: ts.nextID("project"), CreatedAt: ts.now()}
	if msg := ts.applyProject(p, body); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ts.projects = append(ts.projects, p)
	ts.writeJSON(w, http.StatusCreated, ts.renderProject(p))
}

func (ts *TestServer) updateProject(w http.ResponseWriter, r *http.Request) {
	body, ok := ts.readProject(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	p := ts.project(chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	next := *p
	if msg := ts.applyProject(&next, body); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	*p = next
	ts.writeJSON(w, http.StatusOK, ts.renderProject(p))
}

func (ts *TestServer) applyProject(p *projectRec, body projectBody) string {
	if body.Name != nil {
		if strings.TrimSpace(*body.Name) == "" {
			return "Project name is required"
		}
		p.Name = *body.Name
	}
	if body.Description != nil {
		p.Description = *body.Description
	}
	if body.Status != nil {
		if !slices.Contains(projectStatus, *body.Status) {
			return "Invalid project status"
		}
		p.Status = *body.Status
	}
	if body.ProjectManager != nil {
		if *body.ProjectManager != "" && ts.user(*body.ProjectManager) == nil {
			return "Project manager not found"
		}
		p.Manager = *body.ProjectManager
	}
	if body.TeamMembers != nil {
		for _, id := range *body.TeamMembers {
			if ts.user(id) == nil {
				return "Team member not found"
			}
		}
		p.Team = slices.Clone(*body.TeamMembers)
	}
	p.Files = append(slices.Clone(p.Files), body.files...)
	return ""
}

func (ts *TestServer) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.project(id) == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	ts.projects = slices.DeleteFunc(ts.projects, func(p *projectRec) bool { return p.ID == id })
	ts.tasks = slices.DeleteFunc(ts.tasks, func(t *taskRec) bool { return t.Project == id })
	ts.writeJSON(w, http.StatusOK, map[string]string{"message": "Project removed"})
}

func (ts *TestServer) listProjectTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.project(id) == nil {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	tasks := slices.DeleteFunc(slices.Clone(ts.tasks), func(t *taskRec) bool { return t.Project != id })
	ts.writeJSON(w, http.StatusOK, ts.renderTasks(tasks))
}

func (ts *TestServer) listTasks(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.writeJSON(w, http.StatusOK, ts.renderTasks(ts.tasks))
}

func (ts *TestServer) listAssigned(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	tasks := slices.DeleteFunc(slices.Clone(ts.tasks), func(t *taskRec) bool { return t.AssignedTo != id })
	ts.writeJSON(w, http.StatusOK, ts.renderTasks(tasks))
}

func (ts *TestServer) getTask(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := ts.task(chi.URLParam(r, "id"))
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	ts.writeJSON(w, http.StatusOK, ts.renderTask(t))
}

type taskBody struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Project     *string    `json:"project"`
	AssignedTo  *string    `json:"assignedTo"`
}

func (ts *TestServer) createTask(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !decode(w, r, &body) {
		return
	}
	if body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &taskRec{ID: ts.nextID("task"), Status: "Pending", Priority: "Medium", CreatedAt: ts.now()}
	if msg := ts.applyTask(t, body); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ts.tasks = append(ts.tasks, t)
	ts.writeJSON(w, http.StatusCreated, ts.renderTask(t))
}

func (ts *TestServer) updateTask(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !decode(w, r, &body) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := ts.task(chi.URLParam(r, "id"))
	if t == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	next := *t
	if msg := ts.applyTask(&next, body); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	*t = next
	ts.writeJSON(w, http.StatusOK, ts.renderTask(t))
}

func (ts *TestServer) applyTask(t *taskRec, body taskBody) string {
	if body.Title != nil {
		if strings.TrimSpace(*body.Title) == "" {
			return "Task title is required"
		}
		t.Title = *body.Title
	}
	if body.Description != nil {
		t.Description = *body.Description
	}
	if body.Status != nil {
		if !slices.Contains(taskStatus, *body.Status) {
			return "Invalid task status"
		}
		t.Status = *body.Status
	}
	if body.Priority != nil {
		if !slices.Contains(taskPriorities, *body.Priority) {
			return "Invalid task priority"
		}
		t.Priority = *body.Priority
	}
	if body.DueDate != nil {
		due := *body.DueDate
		t.DueDate = &due
	}
	if body.Project != nil {
		if *body.Project != "" && ts.project(*body.Project) == nil {
			return "Project not found"
		}
		t.Project = *body.Project
	}
	if body.AssignedTo != nil {
		if *body.AssignedTo != "" && ts.user(*body.AssignedTo) == nil {
			return "Assignee not found"
		}
		t.AssignedTo = *body.AssignedTo
	}
	return ""
}

func (ts *TestServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.task(id) == nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	ts.tasks = slices.DeleteFunc(ts.tasks, func(t *taskRec) bool { return t.ID == id })
	ts.writeJSON(w, http.StatusOK, map[string]string{"message": "Task removed"})
}

func (ts *TestServer) listUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := []userJSON{}
	for _, u := range ts.users {
		if role == "" || u.Role == role {
			out = append(out, renderUser(u))
		}
	}
	ts.writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) getUser(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	u := ts.user(chi.URLParam(r, "id"))
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	ts.writeJSON(w, http.StatusOK, renderUser(u))
}

func (ts *TestServer) updateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
		Role  *string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	u := ts.user(chi.URLParam(r, "id"))
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if body.Role != nil && !slices.Contains(roles, *body.Role) {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	if body.Name != nil && *body.Name != "" {
		u.Name = *body.Name
	}
	if body.Email != nil && *body.Email != "" {
		u.Email = *body.Email
	}
	if body.Role != nil {
		u.Role = *body.Role
	}
	ts.writeJSON(w, http.StatusOK, map[string]any{"message": "User updated", "user": renderUser(u)})
}

func (ts *TestServer) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.user(id) == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	ts.users = slices.DeleteFunc(ts.users, func(u *userRec) bool { return u.ID == id })
	ts.writeJSON(w, http.StatusOK, map[string]string{"message": "User removed"})
}

// caller resolves the bearer token. authenticate has already vetted it.
func (ts *TestServer) caller(r *http.Request) *userRec {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if u := ts.user(ts.tokens[token]); u != nil {
		return u
	}
	return &userRec{}
}

func (ts *TestServer) user(id string) *userRec {
	for _, u := range ts.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (ts *TestServer) userByEmail(email string) *userRec {
	for _, u := range ts.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (ts *TestServer) project(id string) *projectRec {
	for _, p := range ts.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (ts *TestServer) task(id string) *taskRec {
	for _, t := range ts.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func renderUser(u *userRec) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func (ts *TestServer) userRef(id string) *refJSON {
	if id == "" {
		return nil
	}
	if u := ts.user(id); u != nil {
		return &refJSON{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return &refJSON{ID: id}
}

func (ts *TestServer) renderProject(p *projectRec) projectJSON {
	out := projectJSON{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Status:         p.Status,
		ProjectManager: ts.userRef(p.Manager),
		TeamMembers:    []refJSON{},
		Files:          slices.Clone(p.Files),
		CreatedAt:      p.CreatedAt,
	}
	if out.Files == nil {
		out.Files = []record.Attachment{}
	}
	for _, id := range p.Team {
		out.TeamMembers = append(out.TeamMembers, *ts.userRef(id))
	}
	return out
}

func (ts *TestServer) renderProjects(ps []*projectRec) []projectJSON {
	out := make([]projectJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, ts.renderProject(p))
	}
	return out
}

func (ts *TestServer) renderTask(t *taskRec) taskJSON {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		AssignedTo:  ts.userRef(t.AssignedTo),
		CreatedAt:   t.CreatedAt,
	}
	if t.Project != "" {
		out.Project = &refJSON{ID: t.Project}
		if p := ts.project(t.Project); p != nil {
			out.Project.Name = p.Name
		}
	}
	return out
}

func (ts *TestServer) renderTasks(tasks []*taskRec) []taskJSON {
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ts.renderTask(t))
	}
	return out
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func countFunc[T any](items []T, keep func(T) bool) int {
	n := 0
	for _, item := range items {
		if keep(item) {
			n++
		}
	}
	return n
}

// recent returns up to five items, newest first.
func recent[T any](items []T) []T {
	out := slices.Clone(items)
	slices.Reverse(out)
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
