package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rpggio/taskdesk/internal/domain/project"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

// Projects is the /projects endpoint set.
type Projects struct {
	*Resource[project.Project, project.Payload]
}

func newProjects(c *Client) *Projects {
	r := newResource[project.Project, project.Payload](c, "project", "/projects")
	r.encode = encodeProject
	return &Projects{r}
}

// ListTasks fetches the tasks of one project.
func (p *Projects) ListTasks(ctx context.Context, projectID, token string) ([]task.Task, error) {
	var out []task.Task
	err := p.c.do(ctx, call{
		entity: "task",
		op:     "list_by_project",
		method: http.MethodGet,
		path:   "/projects/" + escape(projectID) + "/tasks",
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []task.Task{}
	}
	return out, nil
}

// Tasks is the /tasks endpoint set.
type Tasks struct {
	*Resource[task.Task, task.Payload]
}

func newTasks(c *Client) *Tasks {
	return &Tasks{newResource[task.Task, task.Payload](c, "task", "/tasks")}
}

// ListAssigned fetches the tasks assigned to userID.
func (t *Tasks) ListAssigned(ctx context.Context, userID, token string) ([]task.Task, error) {
	return t.listAt(ctx, "list_assigned", "/tasks/assigned/"+escape(userID), nil, token)
}

// Users is the /users endpoint set. Accounts are created through registration
// and updated through the role endpoint.
type Users struct {
	*Resource[user.User, user.Payload]
}

func newUsers(c *Client) *Users {
	r := newResource[user.User, user.Payload](c, "user", "/users")
	r.createPath = func() string { return "/auth/register" }
	r.updatePath = func(id string) string { return "/users/" + escape(id) + "/role" }
	r.unwrap = []string{"user"}
	return &Users{r}
}

// ListByRole fetches users holding role.
func (u *Users) ListByRole(ctx context.Context, role user.Role, token string) ([]user.User, error) {
	return u.listAt(ctx, "list_by_role", "/users", url.Values{"role": {string(role)}}, token)
}

// Auth is the sign-in endpoint set. It implements session.Authenticator.
type Auth struct {
	c *Client
}

type grantBody struct {
	Token string           `json:"token"`
	User  session.Identity `json:"user"`
}

// Login exchanges credentials for a token.
func (a *Auth) Login(ctx context.Context, email, password string) (session.Grant, error) {
	return a.grant(ctx, "login", "/auth/login", map[string]string{"email": email, "password": password})
}

// Register creates an account and returns its token.
func (a *Auth) Register(ctx context.Context, name, email, password string) (session.Grant, error) {
	return a.grant(ctx, "register", "/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (a *Auth) grant(ctx context.Context, op, path string, body map[string]string) (session.Grant, error) {
	var out grantBody
	err := a.c.do(ctx, call{
		entity: "auth",
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
	}, &out)
	if err != nil {
		return session.Grant{}, err
	}
	return session.Grant{Token: out.Token, Identity: out.User}, nil
}

// Overview is the dashboard summary for the signed-in role.
type Overview struct {
	Role           string            `json:"role"`
	TotalProjects  int               `json:"totalProjects"`
	ActiveProjects int               `json:"activeProjects"`
	TotalTasks     int               `json:"totalTasks"`
	CompletedTasks int               `json:"completedTasks"`
	RecentProjects []project.Project `json:"recentProjects"`
	RecentTasks    []task.Task       `json:"recentTasks"`
}

// Dashboard is the overview endpoint.
type Dashboard struct {
	c *Client
}

// Overview fetches the dashboard summary.
func (d *Dashboard) Overview(ctx context.Context, token string) (Overview, error) {
	var out Overview
	err := d.c.do(ctx, call{
		entity: "dashboard",
		op:     "overview",
		method: http.MethodGet,
		path:   "/dashboard/overview",
		token:  token,
	}, &out)
	return out, err
}
