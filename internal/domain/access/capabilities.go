package access

import (
	"slices"

	"github.com/rpggio/taskdesk/internal/domain/user"
)

// View names a collection view or page of the console.
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewProjects      View = "projects"
	ViewTasks         View = "tasks"
	ViewUsers         View = "users"
	ViewAssignedTasks View = "assigned-tasks"
)

// Views lists every view in menu order.
var Views = []View{ViewDashboard, ViewProjects, ViewTasks, ViewUsers, ViewAssignedTasks}

// Action names a mutation available inside a view.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionManageTeam   Action = "manage-team"
	ActionUpdateStatus Action = "update-status"
)

// Grants is what a role may reach: views, and the actions allowed in each.
type Grants map[View][]Action

// Table maps roles to their grants. Roles absent from the table reach nothing.
type Table map[user.Role]Grants

// DefaultTable is the console's capability table.
var DefaultTable = Table{
	user.RoleAdmin: {
		ViewDashboard: nil,
		ViewProjects:  {ActionCreate, ActionUpdate, ActionDelete},
		ViewTasks:     {ActionCreate, ActionUpdate, ActionDelete},
		ViewUsers:     {ActionCreate, ActionUpdate, ActionDelete},
	},
	user.RoleProjectManager: {
		ViewDashboard: nil,
		ViewProjects:  {ActionCreate, ActionUpdate, ActionDelete, ActionManageTeam},
		ViewTasks:     {ActionCreate, ActionUpdate, ActionDelete},
	},
	user.RoleTeamMember: {
		ViewDashboard:     nil,
		ViewAssignedTasks: {ActionUpdateStatus},
	},
}

// CanView reports whether role may open view.
func (t Table) CanView(role user.Role, view View) bool {
	_, ok := t[role][view]
	return ok
}

// CanAct reports whether role may perform action in view.
func (t Table) CanAct(role user.Role, view View, action Action) bool {
	actions, ok := t[role][view]
	return ok && slices.Contains(actions, action)
}

// ViewsFor returns the views role may open, in menu order.
func (t Table) ViewsFor(role user.Role) []View {
	var out []View
	for _, v := range Views {
		if t.CanView(role, v) {
			out = append(out, v)
		}
	}
	return out
}

// ActionsFor returns the actions role may perform in view.
func (t Table) ActionsFor(role user.Role, view View) []Action {
	return slices.Clone(t[role][view])
}

// placeholders is shown in place of a view the role cannot open.
var placeholders = map[View]string{
	ViewDashboard:     "The dashboard is not available for your role.",
	ViewProjects:      "Project management is available only for Admins and Project Managers.",
	ViewTasks:         "Task management is available only for Admins and Project Managers.",
	ViewUsers:         "User management is available only for Admins.",
	ViewAssignedTasks: "Assigned tasks are available only for Team Members.",
}

// Placeholder returns the explanation shown when view is denied.
func Placeholder(view View) string {
	if p, ok := placeholders[view]; ok {
		return p
	}
	return "This page is not available for your role."
}
