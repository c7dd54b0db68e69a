package console

import (
	"context"
	"fmt"
	"slices"

	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/project"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

// Form names a create/edit form.
type Form string

const (
	FormProject    Form = "project"
	FormTask       Form = "task"
	FormUser       Form = "user"
	FormTaskStatus Form = "task-status"
	FormTeam       Form = "team"
)

type formSpec struct {
	view    access.View
	actions []access.Action
	needs   []slot
}

var formOrder = []Form{FormProject, FormTeam, FormTask, FormTaskStatus, FormUser}

var formSpecs = map[Form]formSpec{
	FormProject: {
		view:    access.ViewProjects,
		actions: []access.Action{access.ActionCreate, access.ActionUpdate},
		needs:   []slot{slotProjectManagers, slotTeamMembers},
	},
	FormTeam: {
		view:    access.ViewProjects,
		actions: []access.Action{access.ActionManageTeam},
		needs:   []slot{slotTeamMembers},
	},
	FormTask: {
		view:    access.ViewTasks,
		actions: []access.Action{access.ActionCreate, access.ActionUpdate},
		needs:   []slot{slotProjects, slotTeamMembers},
	},
	FormTaskStatus: {
		view:    access.ViewAssignedTasks,
		actions: []access.Action{access.ActionUpdateStatus},
	},
	FormUser: {
		view:    access.ViewUsers,
		actions: []access.Action{access.ActionCreate, access.ActionUpdate},
	},
}

func (f formSpec) allowed(table access.Table, role user.Role) bool {
	return slices.ContainsFunc(f.actions, func(a access.Action) bool {
		return table.CanAct(role, f.view, a)
	})
}

// Layout is what one role sees.
type Layout struct {
	Role    user.Role                       `json:"role"`
	Views   []access.View                   `json:"views"`
	Forms   []Form                          `json:"forms"`
	Actions map[access.View][]access.Action `json:"actions"`
}

// LayoutFor maps role to its visible views, forms and actions. Unknown roles
// get an empty layout.
func LayoutFor(table access.Table, role user.Role) Layout {
	l := Layout{
		Role:    role,
		Views:   table.ViewsFor(role),
		Forms:   []Form{},
		Actions: map[access.View][]access.Action{},
	}
	if l.Views == nil {
		l.Views = []access.View{}
	}
	for _, v := range l.Views {
		if actions := table.ActionsFor(role, v); len(actions) > 0 {
			l.Actions[v] = actions
		}
	}
	for _, f := range formOrder {
		if formSpecs[f].allowed(table, role) {
			l.Forms = append(l.Forms, f)
		}
	}
	return l
}

// FormState is a form and the relation options it needs. Loading stays true
// while any of them is still being fetched.
type FormState struct {
	Form            Form              `json:"form"`
	Outcome         string            `json:"outcome"`
	Placeholder     string            `json:"placeholder,omitempty"`
	Loading         bool              `json:"loading"`
	Ready           bool              `json:"ready"`
	Error           string            `json:"error,omitempty"`
	Projects        []project.Project `json:"projects,omitempty"`
	TeamMembers     []user.User       `json:"teamMembers,omitempty"`
	ProjectManagers []user.User       `json:"projectManagers,omitempty"`
}

// OpenForm loads the form's prerequisites in parallel and returns the form
// once they are all in. A denied form returns its decision without loading
// anything.
func (c *Console) OpenForm(ctx context.Context, form Form) (FormState, error) {
	spec, ok := formSpecs[form]
	if !ok {
		return FormState{}, fmt.Errorf("%w: %s", ErrUnknownForm, form)
	}
	d := c.formDecision(spec)
	if !d.Allowed() {
		return FormState{Form: form, Outcome: d.Outcome.String(), Placeholder: d.Placeholder}, nil
	}

	handles := make(map[slot]handle, len(spec.needs))
	for _, s := range spec.needs {
		h, err := c.handle(s)
		if err != nil {
			return FormState{}, err
		}
		handles[s] = h
	}

	c.setForm(FormState{Form: form, Outcome: d.Outcome.String(), Loading: len(handles) > 0})

	g, gctx := errgroup.WithContext(ctx)
	for s, h := range handles {
		if h.loaded() {
			continue
		}
		g.Go(func() error {
			if err := h.load(gctx); err != nil {
				return fmt.Errorf("loading %s: %w", s, err)
			}
			return nil
		})
	}
	err := g.Wait()

	state := FormState{Form: form, Outcome: d.Outcome.String(), Ready: err == nil}
	if err != nil {
		state.Error = err.Error()
	}
	if h, ok := handles[slotProjects]; ok {
		state.Projects = h.records().([]project.Project)
	}
	if h, ok := handles[slotTeamMembers]; ok {
		state.TeamMembers = h.records().([]user.User)
	}
	if h, ok := handles[slotProjectManagers]; ok {
		state.ProjectManagers = h.records().([]user.User)
	}
	c.setForm(state)
	return state, err
}

// FormState returns the last known state of form.
func (c *Console) FormState(form Form) (FormState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.forms[form]
	return s, ok
}

func (c *Console) setForm(s FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms[s.Form] = s
}

func (c *Console) formDecision(spec formSpec) access.Decision {
	var d access.Decision
	for _, a := range spec.actions {
		if d = c.gate.CheckAction(spec.view, a); d.Allowed() {
			return d
		}
	}
	return d
}
