package access_test

import (
	"testing"

	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func TestGate_UnresolvedIsLoading(t *testing.T) {
	g := access.NewGate(nil)

	for _, v := range access.Views {
		require.Equal(t, access.Loading, g.CheckView(v).Outcome, v)
	}
	require.Equal(t, access.Loading, g.CheckAction(access.ViewProjects, access.ActionCreate).Outcome)
}

func TestGate_UnauthenticatedRedirects(t *testing.T) {
	g := access.NewGate(nil)
	g.Resolve("", false)

	state, _ := g.State()
	require.Equal(t, access.Unauthenticated, state)
	require.Equal(t, access.RedirectLogin, g.CheckView(access.ViewDashboard).Outcome)
}

func TestGate_TeamMemberDeniedUsers(t *testing.T) {
	g := access.NewGate(nil)
	g.Resolve(user.RoleTeamMember, true)

	d := g.CheckView(access.ViewUsers)
	require.Equal(t, access.Deny, d.Outcome)
	require.Equal(t, "User management is available only for Admins.", d.Placeholder)
	require.False(t, d.Allowed())

	require.True(t, g.CheckView(access.ViewAssignedTasks).Allowed())
	require.True(t, g.CheckAction(access.ViewAssignedTasks, access.ActionUpdateStatus).Allowed())
	require.Equal(t, access.Deny, g.CheckAction(access.ViewTasks, access.ActionDelete).Outcome)
}

func TestGate_RoleTable(t *testing.T) {
	cases := []struct {
		role  user.Role
		views []access.View
	}{
		{user.RoleAdmin, []access.View{access.ViewDashboard, access.ViewProjects, access.ViewTasks, access.ViewUsers}},
		{user.RoleProjectManager, []access.View{access.ViewDashboard, access.ViewProjects, access.ViewTasks}},
		{user.RoleTeamMember, []access.View{access.ViewDashboard, access.ViewAssignedTasks}},
		{"admin", nil},
		{"Guest", nil},
	}
	for _, tc := range cases {
		require.Equal(t, tc.views, access.DefaultTable.ViewsFor(tc.role), tc.role)
	}

	require.True(t, access.DefaultTable.CanAct(user.RoleProjectManager, access.ViewProjects, access.ActionManageTeam))
	require.False(t, access.DefaultTable.CanAct(user.RoleAdmin, access.ViewProjects, access.ActionManageTeam))
	require.False(t, access.DefaultTable.CanAct(user.RoleAdmin, access.ViewDashboard, access.ActionCreate))
}

func TestGate_UnknownRoleDeniedEverywhere(t *testing.T) {
	g := access.NewGate(nil)
	g.Resolve("Superuser", true)

	for _, v := range access.Views {
		require.Equal(t, access.Deny, g.CheckView(v).Outcome, v)
	}
}

func TestGate_ResetReturnsToUnresolved(t *testing.T) {
	g := access.NewGate(nil)
	g.Resolve(user.RoleAdmin, true)
	require.True(t, g.CheckView(access.ViewUsers).Allowed())

	g.Reset()
	state, role := g.State()
	require.Equal(t, access.Unresolved, state)
	require.Empty(t, role)
	require.Equal(t, access.Loading, g.CheckView(access.ViewUsers).Outcome)
}

func TestGate_ActionsForIsACopy(t *testing.T) {
	actions := access.DefaultTable.ActionsFor(user.RoleAdmin, access.ViewUsers)
	actions[0] = access.ActionManageTeam
	require.False(t, access.DefaultTable.CanAct(user.RoleAdmin, access.ViewUsers, access.ActionManageTeam))
}
