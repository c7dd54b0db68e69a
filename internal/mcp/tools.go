package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/collection"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/metrics"
)

type tools struct {
	console *console.Console
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Tool inputs.
type (
	EmptyInput struct{}

	LoginInput struct {
		Email    string `json:"email" jsonschema:"account email"`
		Password string `json:"password" jsonschema:"account password"`
	}

	RegisterInput struct {
		Name     string `json:"name" jsonschema:"display name"`
		Email    string `json:"email" jsonschema:"account email"`
		Password string `json:"password" jsonschema:"account password"`
	}

	ViewInput struct {
		View string `json:"view" jsonschema:"view name: projects, tasks, users or assigned-tasks"`
	}

	SetQueryInput struct {
		View         string            `json:"view" jsonschema:"view name"`
		Search       *string           `json:"search,omitempty" jsonschema:"free-text search; empty clears it"`
		Filters      map[string]string `json:"filters,omitempty" jsonschema:"field to value; an empty value removes that filter"`
		ClearFilters bool              `json:"clear_filters,omitempty" jsonschema:"drop every filter before applying filters"`
		SortField    *string           `json:"sort_field,omitempty" jsonschema:"field to sort by; empty restores server order"`
		SortOrder    *string           `json:"sort_order,omitempty" jsonschema:"asc or desc"`
		Page         *int              `json:"page,omitempty" jsonschema:"1-based page number"`
		PageSize     *int              `json:"page_size,omitempty" jsonschema:"rows per page"`
	}

	FormInput struct {
		Form string `json:"form" jsonschema:"form name: project, team, task, task-status or user"`
	}

	CreateInput struct {
		View    string         `json:"view" jsonschema:"view to create in"`
		Payload map[string]any `json:"payload" jsonschema:"record fields"`
	}

	UpdateInput struct {
		View    string         `json:"view" jsonschema:"view holding the record"`
		ID      string         `json:"id" jsonschema:"record id"`
		Payload map[string]any `json:"payload" jsonschema:"fields to change"`
	}

	TeamInput struct {
		ProjectID string   `json:"project_id" jsonschema:"project id"`
		MemberIDs []string `json:"member_ids" jsonschema:"ids of every team member; replaces the current team"`
	}

	RecordInput struct {
		View string `json:"view" jsonschema:"view holding the record"`
		ID   string `json:"id" jsonschema:"record id"`
	}

	ActivityInput struct {
		View  string `json:"view,omitempty" jsonschema:"only mutations made in this view"`
		Limit int    `json:"limit,omitempty" jsonschema:"maximum entries, newest first"`
	}
)

// Tool outputs that are not console types.
type (
	IdentityResult struct {
		SignedIn bool              `json:"signed_in"`
		State    string            `json:"state"`
		User     *session.Identity `json:"user,omitempty"`
		Layout   console.Layout    `json:"layout"`
	}

	RecordResult struct {
		View   access.View  `json:"view"`
		Record any          `json:"record"`
		Page   console.Page `json:"page"`
	}

	DeleteResult struct {
		View    access.View  `json:"view"`
		Deleted string       `json:"deleted"`
		Page    console.Page `json:"page"`
	}

	DashboardResult struct {
		Outcome  string       `json:"outcome"`
		Overview api.Overview `json:"overview"`
	}
)

type toolFunc[I any] func(ctx context.Context, in I) (any, error)

// addTool registers fn under name. Errors become tool error results carrying
// an APIError as JSON, and every call is counted by outcome.
func addTool[I any](t *tools, server *sdkmcp.Server, name, description string, fn toolFunc[I]) {
	sdkmcp.AddTool[I, any](server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in I) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				apiErr := MapError(err)
				t.metrics.ObserveTool(name, apiErr.Code)
				t.logger.Info("tool failed", "tool", name, "code", apiErr.Code, "error", err)
				return errorResult(apiErr), nil, nil
			}
			t.metrics.ObserveTool(name, "ok")
			return nil, out, nil
		})
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func (t *tools) addAll(server *sdkmcp.Server) {
	addTool(t, server, "login", "Sign in with email and password", t.login)
	addTool(t, server, "register", "Create an account and sign in", t.register)
	addTool(t, server, "logout", "Sign out and drop every loaded view", t.logout)
	addTool(t, server, "whoami", "Show the signed-in user and session state", t.whoami)
	addTool(t, server, "layout", "List the views, forms and actions the current role can reach", t.layout)
	addTool(t, server, "open_view", "Open a collection view, loading it from the server the first time", t.openView)
	addTool(t, server, "set_query", "Search, filter, sort or page a loaded view without contacting the server", t.setQuery)
	addTool(t, server, "refresh_view", "Reload a view from the server", t.refreshView)
	addTool(t, server, "open_form", "Open a form and load the options it needs", t.openForm)
	addTool(t, server, "create_record", "Create a record in a view", t.createRecord)
	addTool(t, server, "update_record", "Update a record in a view", t.updateRecord)
	addTool(t, server, "update_team", "Replace the team of a project", t.updateTeam)
	addTool(t, server, "request_delete", "Mark a record for deletion; nothing is deleted until confirm_delete", t.requestDelete)
	addTool(t, server, "confirm_delete", "Delete the record awaiting confirmation in a view", t.confirmDelete)
	addTool(t, server, "cancel_delete", "Drop the pending deletion in a view", t.cancelDelete)
	addTool(t, server, "dashboard", "Show the overview for the signed-in role", t.dashboard)
	addTool(t, server, "recent_activity", "List your most recent changes made through this console", t.recentActivity)
}

func (t *tools) login(ctx context.Context, in LoginInput) (any, error) {
	if _, err := t.console.Login(ctx, in.Email, in.Password); err != nil {
		return nil, err
	}
	return t.identity(), nil
}

func (t *tools) register(ctx context.Context, in RegisterInput) (any, error) {
	if _, err := t.console.Register(ctx, in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}
	return t.identity(), nil
}

func (t *tools) logout(ctx context.Context, _ EmptyInput) (any, error) {
	if err := t.console.Logout(ctx); err != nil {
		return nil, err
	}
	return t.identity(), nil
}

func (t *tools) whoami(context.Context, EmptyInput) (any, error) {
	return t.identity(), nil
}

func (t *tools) identity() IdentityResult {
	state, _ := t.console.Gate().State()
	res := IdentityResult{State: state.String(), Layout: t.console.Layout()}
	if id, ok := t.console.Identity(); ok {
		res.SignedIn = true
		res.User = &id
	}
	return res
}

func (t *tools) layout(context.Context, EmptyInput) (any, error) {
	return t.console.Layout(), nil
}

func (t *tools) openView(ctx context.Context, in ViewInput) (any, error) {
	page, err := t.console.OpenView(ctx, access.View(in.View))
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (t *tools) refreshView(ctx context.Context, in ViewInput) (any, error) {
	page, err := t.console.Refresh(ctx, access.View(in.View))
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (t *tools) setQuery(_ context.Context, in SetQueryInput) (any, error) {
	patch := collection.QueryPatch{
		Search:       in.Search,
		Filters:      in.Filters,
		ClearFilters: in.ClearFilters,
		SortField:    in.SortField,
		Page:         in.Page,
		PageSize:     in.PageSize,
	}
	if in.SortOrder != nil {
		order := collection.Order(*in.SortOrder)
		patch.SortOrder = &order
	}
	page, err := t.console.SetQuery(access.View(in.View), patch)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (t *tools) openForm(ctx context.Context, in FormInput) (any, error) {
	state, err := t.console.OpenForm(ctx, console.Form(in.Form))
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (t *tools) createRecord(ctx context.Context, in CreateInput) (any, error) {
	view := access.View(in.View)
	payload, err := t.decode(view, in.Payload)
	if err != nil {
		return nil, err
	}
	rec, err := t.console.Create(ctx, view, payload)
	if err != nil {
		return nil, err
	}
	return t.recordResult(view, rec), nil
}

func (t *tools) updateRecord(ctx context.Context, in UpdateInput) (any, error) {
	view := access.View(in.View)
	payload, err := t.decode(view, in.Payload)
	if err != nil {
		return nil, err
	}
	rec, err := t.console.Update(ctx, view, in.ID, payload)
	if err != nil {
		return nil, err
	}
	return t.recordResult(view, rec), nil
}

func (t *tools) decode(view access.View, fields map[string]any) (any, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return t.console.DecodePayload(view, data)
}

func (t *tools) recordResult(view access.View, rec any) RecordResult {
	page, _ := t.console.Current(view)
	return RecordResult{View: view, Record: rec, Page: page}
}

func (t *tools) updateTeam(ctx context.Context, in TeamInput) (any, error) {
	p, err := t.console.UpdateTeam(ctx, in.ProjectID, in.MemberIDs)
	if err != nil {
		return nil, err
	}
	return t.recordResult(access.ViewProjects, p), nil
}

func (t *tools) requestDelete(_ context.Context, in RecordInput) (any, error) {
	page, err := t.console.RequestDelete(access.View(in.View), in.ID)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (t *tools) confirmDelete(ctx context.Context, in ViewInput) (any, error) {
	view := access.View(in.View)
	id, err := t.console.ConfirmDelete(ctx, view)
	if err != nil {
		return nil, err
	}
	page, _ := t.console.Current(view)
	return DeleteResult{View: view, Deleted: id, Page: page}, nil
}

func (t *tools) cancelDelete(_ context.Context, in ViewInput) (any, error) {
	page, err := t.console.CancelDelete(access.View(in.View))
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (t *tools) dashboard(ctx context.Context, _ EmptyInput) (any, error) {
	o, d, err := t.console.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	if !d.Allowed() {
		return nil, &console.DeniedError{View: access.ViewDashboard, Decision: d}
	}
	return DashboardResult{Outcome: d.Outcome.String(), Overview: o}, nil
}

func (t *tools) recentActivity(ctx context.Context, in ActivityInput) (any, error) {
	entries, err := t.console.RecentActivity(ctx, access.View(in.View), in.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"entries": entries}, nil
}
