package console

import (
	"context"
	"fmt"

	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/activity"
	"github.com/rpggio/taskdesk/internal/domain/project"
	"github.com/rpggio/taskdesk/internal/domain/record"
	"github.com/rpggio/taskdesk/internal/domain/task"
)

// permitted checks action in view and returns the view's collection.
func (c *Console) permitted(view access.View, action access.Action) (handle, error) {
	s, err := collectionSlot(view)
	if err != nil {
		return nil, err
	}
	if d := c.gate.CheckAction(view, action); !d.Allowed() {
		return nil, &DeniedError{View: view, Action: action, Decision: d}
	}
	return c.handle(s)
}

// DecodePayload decodes JSON into the payload type of view.
func (c *Console) DecodePayload(view access.View, data []byte) (any, error) {
	s, err := collectionSlot(view)
	if err != nil {
		return nil, err
	}
	h, err := c.handle(s)
	if err != nil {
		return nil, err
	}
	return h.decode(data)
}

// Create creates a record in view. payload must be the view's payload type,
// such as task.Payload for the tasks view.
func (c *Console) Create(ctx context.Context, view access.View, payload any) (any, error) {
	h, err := c.permitted(view, access.ActionCreate)
	if err != nil {
		return nil, err
	}
	rec, err := h.create(ctx, payload)
	if err != nil {
		return nil, err
	}
	c.note(ctx, view, activity.TypeCreated, h, h.recordID(rec))
	return rec, nil
}

// Update updates record id in view. In the assigned-tasks view only the task
// status may change.
func (c *Console) Update(ctx context.Context, view access.View, id string, payload any) (any, error) {
	action := access.ActionUpdate
	if view == access.ViewAssignedTasks {
		action = access.ActionUpdateStatus
	}
	h, err := c.permitted(view, action)
	if err != nil {
		return nil, err
	}
	if action == access.ActionUpdateStatus {
		p, ok := payload.(task.Payload)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrPayloadType, payload)
		}
		if !p.StatusOnly() {
			return nil, fmt.Errorf("%w: only status can be changed on an assigned task", record.ErrInvalidInput)
		}
	}
	rec, err := h.update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	c.note(ctx, view, activity.TypeUpdated, h, id)
	return rec, nil
}

// UpdateTeam replaces the team of a project.
func (c *Console) UpdateTeam(ctx context.Context, projectID string, memberIDs []string) (project.Project, error) {
	h, err := c.permitted(access.ViewProjects, access.ActionManageTeam)
	if err != nil {
		return project.Project{}, err
	}
	if memberIDs == nil {
		memberIDs = []string{}
	}
	rec, err := h.update(ctx, projectID, project.TeamPayload(memberIDs))
	if err != nil {
		return project.Project{}, err
	}
	c.note(ctx, access.ViewProjects, activity.TypeTeamChanged, h, projectID)
	return rec.(project.Project), nil
}

// RequestDelete marks id in view for deletion. Nothing is sent until
// ConfirmDelete.
func (c *Console) RequestDelete(view access.View, id string) (Page, error) {
	h, err := c.permitted(view, access.ActionDelete)
	if err != nil {
		return Page{}, err
	}
	if err := h.requestDelete(id); err != nil {
		return c.render(view, h), err
	}
	return c.render(view, h), nil
}

// ConfirmDelete deletes the record awaiting confirmation in view.
func (c *Console) ConfirmDelete(ctx context.Context, view access.View) (string, error) {
	h, err := c.permitted(view, access.ActionDelete)
	if err != nil {
		return "", err
	}
	id, err := h.confirmDelete(ctx)
	if err != nil {
		return id, err
	}
	c.note(ctx, view, activity.TypeDeleted, h, id)
	return id, nil
}

// CancelDelete drops the pending deletion in view.
func (c *Console) CancelDelete(view access.View) (Page, error) {
	h, err := c.permitted(view, access.ActionDelete)
	if err != nil {
		return Page{}, err
	}
	h.cancelDelete()
	return c.render(view, h), nil
}
