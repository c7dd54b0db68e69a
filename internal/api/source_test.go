package api_test

import (
	"context"
	"testing"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/repository"
	"github.com/rpggio/taskdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type tokenFunc func() (string, bool)

func (f tokenFunc) Token() (string, bool) { return f() }

func TestBindWithoutTokenMakesNoRequest(t *testing.T) {
	ts := testserver.New(t)
	c := newClient(t, ts.URL())
	src := api.Bind(c.Tasks.Resource, tokenFunc(func() (string, bool) { return "", false }))
	ctx := context.Background()

	_, err := src.List(ctx)
	require.ErrorIs(t, err, repository.ErrUnauthorized)
	_, err = src.Create(ctx, task.Payload{Title: "x"})
	require.ErrorIs(t, err, repository.ErrUnauthorized)
	_, err = src.Update(ctx, "task-1", task.Payload{Title: "x"})
	require.ErrorIs(t, err, repository.ErrUnauthorized)
	require.ErrorIs(t, src.Delete(ctx, "task-1"), repository.ErrUnauthorized)

	require.Empty(t, ts.Calls())
}

func TestBindReadsTokenPerCall(t *testing.T) {
	ts := testserver.New(t)
	pm := ts.AddUser("Pat", "pat@example.com", "pw", "ProjectManager")
	member := ts.AddUser("Tom", "tom@example.com", "pw", "TeamMember")
	ts.AddTask(testserver.TaskSeed{Title: "Mine", AssignedTo: member})
	ts.AddTask(testserver.TaskSeed{Title: "Other", AssignedTo: pm})

	token := ""
	tokens := tokenFunc(func() (string, bool) { return token, token != "" })
	c := newClient(t, ts.URL())
	src := api.BindList(c.Tasks.Resource, tokens, func(ctx context.Context, token string) ([]task.Task, error) {
		return c.Tasks.ListAssigned(ctx, member, token)
	})

	_, err := src.List(context.Background())
	require.Error(t, err)

	token = ts.IssueToken(member)
	tasks, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Mine", tasks[0].Title)
	require.Equal(t, 1, ts.CallCount("GET", "/tasks/assigned/"+member))
}

func TestRevokedTokenIsAuthError(t *testing.T) {
	ts := testserver.New(t)
	admin := ts.AddUser("Ada", "ada@example.com", "pw", "Admin")
	token := ts.IssueToken(admin)
	ts.RevokeTokens()

	c := newClient(t, ts.URL())
	src := api.Bind(c.Users.Resource, tokenFunc(func() (string, bool) { return token, true }))
	_, err := src.List(context.Background())
	require.ErrorIs(t, err, api.ErrAuth)
}
