// Package console composes the role-scoped console: which views and forms the
// signed-in role sees, the collection views behind them, and the mutation entry
// points, each checked against the access gate before any request is sent.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/collection"
	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/activity"
	"github.com/rpggio/taskdesk/internal/domain/project"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

// slot names one collection view instance. Collection views use their
// access.View name; relation pickers have their own.
type slot string

const (
	slotProjects        = slot(access.ViewProjects)
	slotTasks           = slot(access.ViewTasks)
	slotUsers           = slot(access.ViewUsers)
	slotAssigned        = slot(access.ViewAssignedTasks)
	slotTeamMembers     slot = "pick-team-members"
	slotProjectManagers slot = "pick-project-managers"
)

// Journal keeps the mutation history. *activity.Service implements it.
type Journal interface {
	Record(ctx context.Context, entry *activity.Entry) error
	Recent(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Console is one user's console state.
type Console struct {
	client   *api.Client
	session  *session.Store
	gate     *access.Gate
	logger   *slog.Logger
	journal  Journal
	pageSize int

	mu      sync.Mutex
	handles map[slot]handle
	forms   map[Form]FormState
}

// Option configures a Console.
type Option func(*Console)

// WithLogger sets the console's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// WithPageSize sets the initial page size of every collection view.
func WithPageSize(size int) Option {
	return func(c *Console) { c.pageSize = size }
}

// WithJournal records every successful mutation in j.
func WithJournal(j Journal) Option {
	return func(c *Console) { c.journal = j }
}

// WithTable replaces the default capability table.
func WithTable(table access.Table) Option {
	return func(c *Console) { c.gate = access.NewGate(table) }
}

// New creates a console bound to store. Until Restore, Login or Register
// resolves the session, every view reports Loading.
func New(client *api.Client, store *session.Store, opts ...Option) *Console {
	c := &Console{
		client:  client,
		session: store,
		handles: map[slot]handle{},
		forms:   map[Form]FormState{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = access.NewGate(nil)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.pageSize = collection.ClampPageSize(c.pageSize)
	store.OnChange(c.sessionChanged)
	return c
}

// Gate returns the console's access gate.
func (c *Console) Gate() *access.Gate {
	return c.gate
}

// sessionChanged drops every view so the next user starts clean, then
// resolves the gate for the new identity.
func (c *Console) sessionChanged(id session.Identity, ok bool) {
	c.mu.Lock()
	c.handles = map[slot]handle{}
	c.forms = map[Form]FormState{}
	c.mu.Unlock()

	c.gate.Resolve(id.Role, ok)
	if ok && !id.Role.Valid() {
		c.logger.Warn("signed in with unrecognized role", "user_id", id.ID, "role", id.Role)
	}
}

// Restore resumes a persisted session. A storage failure still resolves the
// gate, as signed out.
func (c *Console) Restore(ctx context.Context) error {
	c.gate.Reset()
	if err := c.session.Restore(ctx); err != nil {
		c.gate.Resolve("", false)
		return err
	}
	return nil
}

// Login signs in.
func (c *Console) Login(ctx context.Context, email, password string) (session.Identity, error) {
	return c.session.Login(ctx, email, password)
}

// Register creates an account and signs in.
func (c *Console) Register(ctx context.Context, name, email, password string) (session.Identity, error) {
	return c.session.Register(ctx, name, email, password)
}

// Logout signs out.
func (c *Console) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// Identity returns the signed-in user.
func (c *Console) Identity() (session.Identity, bool) {
	return c.session.Identity()
}

// Layout returns what the current role sees. It is empty until the session is
// resolved as signed in.
func (c *Console) Layout() Layout {
	state, role := c.gate.State()
	if state != access.Authenticated {
		return Layout{Views: []access.View{}, Forms: []Form{}, Actions: map[access.View][]access.Action{}}
	}
	return LayoutFor(c.gate.Table(), role)
}

// handle returns the view in s, building it on first use.
func (c *Console) handle(s slot) (handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[s]; ok {
		return h, nil
	}
	h, err := c.build(s)
	if err != nil {
		return nil, err
	}
	c.handles[s] = h
	return h, nil
}

func (c *Console) build(s slot) (handle, error) {
	opts := []collection.Option{
		collection.WithLogger(c.logger.With("view", string(s))),
		collection.WithAuthErrorHandler(func(ctx context.Context, err error) {
			c.session.HandleError(ctx, err)
		}),
	}
	users := c.client.Users
	switch s {
	case slotProjects:
		return buildView(project.Schema(c.pageSize), api.Bind(c.client.Projects.Resource, c.session), opts)
	case slotTasks:
		return buildView(task.Schema(c.pageSize), api.Bind(c.client.Tasks.Resource, c.session), opts)
	case slotUsers:
		return buildView(user.Schema(c.pageSize), api.Bind(users.Resource, c.session), opts)
	case slotAssigned:
		list := func(ctx context.Context, token string) ([]task.Task, error) {
			id, _ := c.session.Identity()
			return c.client.Tasks.ListAssigned(ctx, id.ID, token)
		}
		return buildView(task.Schema(c.pageSize), api.BindList(c.client.Tasks.Resource, c.session, list), opts)
	case slotTeamMembers:
		return buildView(user.Schema(collection.MaxPageSize), api.BindList(users.Resource, c.session, byRole(users, user.RoleTeamMember)), opts)
	case slotProjectManagers:
		return buildView(user.Schema(collection.MaxPageSize), api.BindList(users.Resource, c.session, byRole(users, user.RoleProjectManager)), opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotCollection, s)
}

func buildView[T any, P validated](schema collection.Schema[T], src collection.Source[T, P], opts []collection.Option) (handle, error) {
	view, err := collection.NewView(schema, src, opts...)
	if err != nil {
		return nil, err
	}
	return newTyped(view), nil
}

func byRole(users *api.Users, role user.Role) api.ListFunc[user.User] {
	return func(ctx context.Context, token string) ([]user.User, error) {
		return users.ListByRole(ctx, role, token)
	}
}

// collectionSlot maps a view to its collection, if it has one.
func collectionSlot(view access.View) (slot, error) {
	switch view {
	case access.ViewProjects, access.ViewTasks, access.ViewUsers, access.ViewAssignedTasks:
		return slot(view), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotCollection, view)
}

// allowedView checks the gate, then returns the view's collection.
func (c *Console) allowedView(view access.View) (handle, access.Decision, error) {
	s, err := collectionSlot(view)
	if err != nil {
		return nil, access.Decision{}, err
	}
	d := c.gate.CheckView(view)
	if !d.Allowed() {
		return nil, d, nil
	}
	h, err := c.handle(s)
	return h, d, err
}

func (c *Console) render(view access.View, h handle) Page {
	p := h.page()
	p.View = view
	p.Decision = access.Decision{Outcome: access.Allow}
	p.Outcome = access.Allow.String()
	_, role := c.gate.State()
	p.Actions = c.gate.Table().ActionsFor(role, view)
	return p
}

// OpenView returns the current page of view, loading it first if it has never
// loaded. When the gate does not allow the view no request is made and the
// page carries only the decision. A failed load is returned along with the
// page, which keeps whatever was loaded before.
func (c *Console) OpenView(ctx context.Context, view access.View) (Page, error) {
	h, d, err := c.allowedView(view)
	if err != nil {
		return Page{}, err
	}
	if h == nil {
		return decided(view, d), nil
	}
	var loadErr error
	if !h.loaded() {
		loadErr = h.load(ctx)
	}
	return c.render(view, h), loadErr
}

// Current returns the page of view as it stands. It never loads.
func (c *Console) Current(view access.View) (Page, error) {
	h, d, err := c.allowedView(view)
	if err != nil {
		return Page{}, err
	}
	if h == nil {
		return decided(view, d), nil
	}
	return c.render(view, h), nil
}

// Refresh reloads view from the server.
func (c *Console) Refresh(ctx context.Context, view access.View) (Page, error) {
	h, d, err := c.allowedView(view)
	if err != nil {
		return Page{}, err
	}
	if h == nil {
		return decided(view, d), nil
	}
	loadErr := h.load(ctx)
	return c.render(view, h), loadErr
}

// SetQuery applies patch to view's query and returns the new page. It never
// contacts the server.
func (c *Console) SetQuery(view access.View, patch collection.QueryPatch) (Page, error) {
	h, d, err := c.allowedView(view)
	if err != nil {
		return Page{}, err
	}
	if h == nil {
		return decided(view, d), nil
	}
	if err := h.setQuery(patch); err != nil {
		return c.render(view, h), err
	}
	return c.render(view, h), nil
}

// Dashboard fetches the overview for the signed-in role.
func (c *Console) Dashboard(ctx context.Context) (api.Overview, access.Decision, error) {
	d := c.gate.CheckView(access.ViewDashboard)
	if !d.Allowed() {
		return api.Overview{}, d, nil
	}
	token, ok := c.session.Token()
	if !ok {
		return api.Overview{}, d, &api.Error{Kind: api.ErrAuth, Message: "not signed in"}
	}
	o, err := c.client.Dashboard.Overview(ctx, token)
	if err != nil {
		c.session.HandleError(ctx, err)
		return api.Overview{}, d, err
	}
	return o, d, nil
}
