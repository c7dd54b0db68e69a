package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/domain/project"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/metrics"
	"github.com/rpggio/taskdesk/internal/repository"
	"github.com/rpggio/taskdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, baseURL string, opts ...api.Option) *api.Client {
	t.Helper()
	c, err := api.New(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func stub(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := api.New("")
	require.Error(t, err)

	_, err = api.New("not a url")
	require.Error(t, err)

	c, err := api.New("http://example.test/api/")
	require.NoError(t, err)
	require.Equal(t, "http://example.test/api", c.BaseURL())
}

func TestLoginAndAuthenticatedList(t *testing.T) {
	ts := testserver.New(t)
	pm := ts.AddUser("Pat", "pat@example.com", "secret", "ProjectManager")
	ts.AddProject(testserver.ProjectSeed{Name: "Apollo", Manager: pm, Team: []string{pm}})

	c := newClient(t, ts.URL())
	ctx := context.Background()

	grant, err := c.Auth.Login(ctx, "pat@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, grant.Token)
	require.Equal(t, pm, grant.Identity.ID)
	require.Equal(t, user.RoleProjectManager, grant.Identity.Role)

	projects, err := c.Projects.List(ctx, grant.Token)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Apollo", projects[0].Name)
	require.Equal(t, pm, projects[0].ProjectManager.ID)
	require.Equal(t, "Pat", projects[0].ProjectManager.Name)
	require.True(t, projects[0].TeamMembers.Contains(pm))

	calls := ts.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, "Bearer "+grant.Token, calls[1].Auth)
	require.NotEmpty(t, calls[0].RequestID)
	require.NotEqual(t, calls[0].RequestID, calls[1].RequestID)
}

func TestLoginFailureIsAuthError(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser("Pat", "pat@example.com", "secret", "Admin")
	c := newClient(t, ts.URL())

	_, err := c.Auth.Login(context.Background(), "pat@example.com", "wrong")
	require.ErrorIs(t, err, api.ErrAuth)
	require.ErrorIs(t, err, repository.ErrUnauthorized)
	require.Equal(t, "Invalid email or password", api.Message(err))
}

func TestEnvelopeAndBareBodiesDecodeAlike(t *testing.T) {
	for _, wrap := range []bool{false, true} {
		var opts []testserver.Option
		if wrap {
			opts = append(opts, testserver.WithEnvelope())
		}
		ts := testserver.New(t, opts...)
		admin := ts.AddUser("Ada", "ada@example.com", "pw", "Admin")
		token := ts.IssueToken(admin)
		c := newClient(t, ts.URL())
		ctx := context.Background()

		users, err := c.Users.List(ctx, token)
		require.NoError(t, err)
		require.Len(t, users, 1, "wrap=%v", wrap)

		created, err := c.Users.Create(ctx, user.Payload{
			Name: "Tom", Email: "tom@example.com", Password: "pw", Role: user.RoleTeamMember,
		}, token)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID, "wrap=%v", wrap)
		require.Equal(t, user.RoleTeamMember, created.Role)

		updated, err := c.Users.Update(ctx, created.ID, user.Payload{Role: user.RoleProjectManager}, token)
		require.NoError(t, err)
		require.Equal(t, created.ID, updated.ID, "wrap=%v", wrap)
		require.Equal(t, user.RoleProjectManager, updated.Role)

		grant, err := c.Auth.Login(ctx, "tom@example.com", "pw")
		require.NoError(t, err)
		require.Equal(t, created.ID, grant.Identity.ID, "wrap=%v", wrap)
	}
}

func TestUserEndpoints(t *testing.T) {
	ts := testserver.New(t)
	admin := ts.AddUser("Ada", "ada@example.com", "pw", "Admin")
	ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	token := ts.IssueToken(admin)
	c := newClient(t, ts.URL())
	ctx := context.Background()

	created, err := c.Users.Create(ctx, user.Payload{Name: "Tom", Email: "tom@example.com", Password: "pw", Role: user.RoleTeamMember}, token)
	require.NoError(t, err)
	_, err = c.Users.Update(ctx, created.ID, user.Payload{Role: user.RoleAdmin}, token)
	require.NoError(t, err)

	managers, err := c.Users.ListByRole(ctx, user.RoleProjectManager, token)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	require.Equal(t, "Pat", managers[0].Name)

	require.Equal(t, 1, ts.CallCount(http.MethodPost, "/auth/register"))
	require.Equal(t, 1, ts.CallCount(http.MethodPut, "/users/"+created.ID+"/role"))
	last := ts.Calls()[len(ts.Calls())-1]
	require.Equal(t, "role=ProjectManager", last.Query)
}

func TestTaskEndpoints(t *testing.T) {
	ts := testserver.New(t)
	pm := ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	member := ts.AddUser("Tom", "tom@example.com", "pw", "TeamMember")
	p := ts.AddProject(testserver.ProjectSeed{Name: "Apollo", Manager: pm})
	token := ts.IssueToken(pm)
	c := newClient(t, ts.URL())
	ctx := context.Background()

	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := c.Tasks.Create(ctx, task.Payload{
		Title: "Write plan", Priority: task.PriorityHigh, DueDate: &due, Project: p, AssignedTo: member,
	}, token)
	require.NoError(t, err)
	require.Equal(t, task.StatusPending, created.Status)
	require.Equal(t, "Apollo", created.Project.Name)
	require.Equal(t, "Tom", created.AssignedTo.Name)
	require.True(t, due.Equal(created.Due()))

	updated, err := c.Tasks.Update(ctx, created.ID, task.StatusPayload(task.StatusInProgress), token)
	require.NoError(t, err)
	require.Equal(t, task.StatusInProgress, updated.Status)
	require.Equal(t, "Write plan", updated.Title)

	assigned, err := c.Tasks.ListAssigned(ctx, member, token)
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	byProject, err := c.Projects.ListTasks(ctx, p, token)
	require.NoError(t, err)
	require.Len(t, byProject, 1)

	got, err := c.Tasks.Get(ctx, created.ID, token)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	require.NoError(t, c.Tasks.Delete(ctx, created.ID, token))
	err = c.Tasks.Delete(ctx, created.ID, token)
	require.ErrorIs(t, err, api.ErrNotFound)
	require.Equal(t, "Task not found", api.Message(err))
}

func TestProjectUploadUsesMultipart(t *testing.T) {
	ts := testserver.New(t)
	pm := ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	member := ts.AddUser("Tom", "tom@example.com", "pw", "TeamMember")
	token := ts.IssueToken(pm)
	c := newClient(t, ts.URL())

	created, err := c.Projects.Create(context.Background(), project.Payload{
		Name:           "Apollo",
		Description:    "Moonshot",
		Status:         project.StatusActive,
		ProjectManager: pm,
		TeamMembers:    []string{member},
		Files: []project.Upload{
			{Name: "brief.txt", ContentType: "text/plain", Content: []byte("hello")},
		},
	}, token)
	require.NoError(t, err)
	require.Len(t, created.Files, 1)
	require.Equal(t, "brief.txt", created.Files[0].Name)
	require.True(t, created.TeamMembers.Contains(member))

	upload := ts.LastUpload()
	require.NotNil(t, upload)
	require.Equal(t, "Apollo", upload.Fields["name"])
	require.Equal(t, `["`+member+`"]`, upload.Fields["teamMembers"])
	require.Equal(t, []byte("hello"), upload.Files["brief.txt"])
}

func TestProjectJSONWithoutFiles(t *testing.T) {
	ts := testserver.New(t)
	pm := ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	member := ts.AddUser("Tom", "tom@example.com", "pw", "TeamMember")
	p := ts.AddProject(testserver.ProjectSeed{Name: "Apollo", Manager: pm, Team: []string{member}})
	token := ts.IssueToken(pm)
	c := newClient(t, ts.URL())

	updated, err := c.Projects.Update(context.Background(), p, project.TeamPayload([]string{}), token)
	require.NoError(t, err)
	require.Empty(t, updated.TeamMembers)
	require.Equal(t, "Apollo", updated.Name)
	require.Nil(t, ts.LastUpload())
}

func TestDashboardOverview(t *testing.T) {
	ts := testserver.New(t, testserver.WithEnvelope())
	pm := ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	p := ts.AddProject(testserver.ProjectSeed{Name: "Apollo", Manager: pm})
	ts.AddProject(testserver.ProjectSeed{Name: "Gemini", Manager: pm, Status: "Completed"})
	ts.AddTask(testserver.TaskSeed{Title: "One", Project: p, Status: "Completed"})
	ts.AddTask(testserver.TaskSeed{Title: "Two", Project: p})
	c := newClient(t, ts.URL())

	o, err := c.Dashboard.Overview(context.Background(), ts.IssueToken(pm))
	require.NoError(t, err)
	require.Equal(t, "ProjectManager", o.Role)
	require.Equal(t, 2, o.TotalProjects)
	require.Equal(t, 1, o.ActiveProjects)
	require.Equal(t, 2, o.TotalTasks)
	require.Equal(t, 1, o.CompletedTasks)
	require.Equal(t, "Gemini", o.RecentProjects[0].Name)
	require.Equal(t, "Two", o.RecentTasks[0].Title)
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"not found", 404, `{"message":"Project not found"}`, api.ErrNotFound, "Project not found"},
		{"bad request", 400, `{"message":"Project name is required"}`, api.ErrValidation, "Project name is required"},
		{"conflict", 409, `{"error":"duplicate"}`, api.ErrValidation, "duplicate"},
		{"unprocessable", 422, `{"error":{"message":"bad date"}}`, api.ErrValidation, "bad date"},
		{"unauthorized", 401, `{"message":"Not authorized"}`, api.ErrAuth, "Not authorized"},
		{"forbidden", 403, ``, api.ErrAuth, "Forbidden"},
		{"server error", 500, `<html>oops</html>`, api.ErrNetwork, "Internal Server Error"},
		{"unavailable", 503, `try later`, api.ErrNetwork, "try later"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, stub(t, tt.status, tt.body))
			_, err := c.Projects.List(context.Background(), "tok")
			require.ErrorIs(t, err, tt.kind)
			require.Equal(t, tt.message, api.Message(err))

			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, http.MethodGet, apiErr.Method)
			require.Equal(t, "/projects", apiErr.Path)
			require.NotEmpty(t, apiErr.RequestID)
		})
	}
}

func TestUndecodableBodyIsNetworkError(t *testing.T) {
	c := newClient(t, stub(t, 200, `not json`))
	_, err := c.Tasks.List(context.Background(), "tok")
	require.ErrorIs(t, err, api.ErrNetwork)

	c = newClient(t, stub(t, 200, `{"data":"nope"}`))
	_, err = c.Tasks.List(context.Background(), "tok")
	require.ErrorIs(t, err, api.ErrNetwork)
}

func TestNullListIsEmpty(t *testing.T) {
	c := newClient(t, stub(t, 200, `null`))
	tasks, err := c.Tasks.List(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, tasks)
	require.Empty(t, tasks)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	_, err := c.Users.List(context.Background(), "tok")
	require.ErrorIs(t, err, api.ErrNetwork)
	require.ErrorIs(t, err, repository.ErrUnavailable)
	require.False(t, errors.Is(err, api.ErrAuth))
}

func TestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := newClient(t, srv.URL, api.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Users.List(context.Background(), "tok")
	require.ErrorIs(t, err, api.ErrNetwork)
}

func TestCallsAreObserved(t *testing.T) {
	ts := testserver.New(t)
	admin := ts.AddUser("Ada", "ada@example.com", "pw", "Admin")
	token := ts.IssueToken(admin)
	m := metrics.New()
	c := newClient(t, ts.URL(), api.WithObserver(m))
	ctx := context.Background()

	_, err := c.Users.List(ctx, token)
	require.NoError(t, err)
	_, err = c.Users.Get(ctx, "missing", token)
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests().WithLabelValues("user", "list", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests().WithLabelValues("user", "get", "not_found")))
}

func TestOutcomeLabels(t *testing.T) {
	require.Equal(t, "ok", api.Outcome(nil))
	require.Equal(t, "not_found", api.Outcome(&api.Error{Kind: api.ErrNotFound}))
	require.Equal(t, "auth", api.Outcome(&api.Error{Kind: api.ErrAuth}))
	require.Equal(t, "validation", api.Outcome(&api.Error{Kind: api.ErrValidation}))
	require.Equal(t, "network", api.Outcome(errors.New("boom")))
}
