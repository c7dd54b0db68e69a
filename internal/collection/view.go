package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rpggio/taskdesk/internal/repository"
)

// Source is the remote side of a view: the entity's list and mutation endpoints
// with the caller's credentials already bound.
type Source[T, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload P) (T, error)
	Update(ctx context.Context, id string, payload P) (T, error)
	Delete(ctx context.Context, id string) error
}

// AuthErrorHandler receives authentication failures seen by a view.
type AuthErrorHandler func(ctx context.Context, err error)

// Option configures a View.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	onAuthError AuthErrorHandler
}

// WithLogger sets the view's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAuthErrorHandler registers the callback invoked when the source reports an
// authentication failure.
func WithAuthErrorHandler(h AuthErrorHandler) Option {
	return func(o *options) { o.onAuthError = h }
}

// Snapshot is the observable state of a view. Derived is computed at the time
// of the call.
type Snapshot[T any] struct {
	Entity        string
	Derived       Derived[T]
	Query         Query
	Loading       bool
	Loaded        bool
	LoadErr       error
	MutationErr   error
	Notice        string
	PendingDelete string
}

// View holds one entity collection together with its query state and owns the
// mutation flows that reconcile it with the server.
type View[T, P any] struct {
	schema Schema[T]
	source Source[T, P]
	opts   options

	// mu guards everything below. It is never held across a source call.
	mu            sync.Mutex
	records       []T
	query         Query
	generation    uint64
	loading       bool
	loaded        bool
	loadErr       error
	mutationErr   error
	notice        string
	pendingDelete string
}

// NewView creates an empty, unloaded view.
func NewView[T, P any](schema Schema[T], source Source[T, P], opts ...Option) (*View[T, P], error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s view has no source", ErrInvalidSchema, schema.Entity)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	o.logger = o.logger.With("entity", schema.Entity)
	return &View[T, P]{
		schema: schema,
		source: source,
		opts:   o,
		query:  schema.DefaultQuery(),
	}, nil
}

// Schema returns the view's schema.
func (v *View[T, P]) Schema() Schema[T] {
	return v.schema
}

// Load replaces the collection with a fresh fetch. On failure the previous
// collection stays in place and the error is recorded. A Load that completes
// after a newer Load was started returns ErrStale and changes nothing.
func (v *View[T, P]) Load(ctx context.Context) error {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.loading = true
	v.mu.Unlock()

	records, err := v.source.List(ctx)

	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		v.opts.logger.Debug("dropping superseded load", "generation", gen)
		return ErrStale
	}
	v.loading = false
	if err != nil {
		v.loadErr = err
		v.mu.Unlock()
		v.opts.logger.Warn("load failed", "error", err)
		v.reportAuth(ctx, err)
		return fmt.Errorf("loading %s: %w", v.schema.Entity, err)
	}
	v.records = slices.Clone(records)
	v.loaded = true
	v.loadErr = nil
	if v.pendingDelete != "" && v.indexLocked(v.pendingDelete) < 0 {
		v.pendingDelete = ""
	}
	v.clampLocked()
	v.mu.Unlock()

	v.opts.logger.Debug("loaded", "count", len(records), "generation", gen)
	return nil
}

// Loaded reports whether at least one Load has succeeded since the last Reset.
func (v *View[T, P]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Reset discards the collection and query state. Loads in flight become stale.
func (v *View[T, P]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.records = nil
	v.query = v.schema.DefaultQuery()
	v.loading = false
	v.loaded = false
	v.loadErr = nil
	v.mutationErr = nil
	v.notice = ""
	v.pendingDelete = ""
}

// SetQuery merges patch into the query state. Changing the search term, a
// filter, the sort or the page size moves back to page 1.
func (v *View[T, P]) SetQuery(patch QueryPatch) (Query, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := apply(v.schema, v.query, patch)
	if err != nil {
		return v.query.Clone(), err
	}
	v.query = next
	v.clampLocked()
	return v.query.Clone(), nil
}

// Query returns the current query state.
func (v *View[T, P]) Query() Query {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query.Clone()
}

// Snapshot derives the current page and returns it with the view's status.
func (v *View[T, P]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	derived := v.clampLocked()
	return Snapshot[T]{
		Entity:        v.schema.Entity,
		Derived:       derived,
		Query:         v.query.Clone(),
		Loading:       v.loading,
		Loaded:        v.loaded,
		LoadErr:       v.loadErr,
		MutationErr:   v.mutationErr,
		Notice:        v.notice,
		PendingDelete: v.pendingDelete,
	}
}

// Records returns a copy of the whole collection in server order.
func (v *View[T, P]) Records() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.records)
}

// Find returns the record with the given id.
func (v *View[T, P]) Find(id string) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(id); i >= 0 {
		return v.records[i], true
	}
	var zero T
	return zero, false
}

// Create sends payload to the server and appends the record it returns.
func (v *View[T, P]) Create(ctx context.Context, payload P) (T, error) {
	v.beginMutation()
	rec, err := v.source.Create(ctx, payload)
	if err != nil {
		var zero T
		return zero, v.mutationFailed(ctx, "create", "", err)
	}

	v.mu.Lock()
	if i := v.indexLocked(v.schema.ID(rec)); i >= 0 {
		v.records[i] = rec
	} else {
		v.records = append(v.records, rec)
	}
	v.clampLocked()
	v.mu.Unlock()

	v.opts.logger.Debug("created", "id", v.schema.ID(rec))
	return rec, nil
}

// Update sends payload to the server and replaces the record with the same id.
func (v *View[T, P]) Update(ctx context.Context, id string, payload P) (T, error) {
	v.beginMutation()
	var zero T
	rec, err := v.source.Update(ctx, id, payload)
	if err != nil {
		return zero, v.mutationFailed(ctx, "update", id, err)
	}
	if got := v.schema.ID(rec); got != id {
		return zero, v.mutationFailed(ctx, "update", id, fmt.Errorf("%w: got id %q", ErrUnexpectedReply, got))
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		v.records[i] = rec
	}
	v.clampLocked()
	v.mu.Unlock()

	v.opts.logger.Debug("updated", "id", id)
	return rec, nil
}

// RequestDelete marks id as awaiting confirmation. No server call is made.
func (v *View[T, P]) RequestDelete(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s %s", ErrRecordNotInView, v.schema.Entity, id)
	}
	v.pendingDelete = id
	return nil
}

// CancelDelete drops the pending confirmation, if any.
func (v *View[T, P]) CancelDelete() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingDelete = ""
}

// ConfirmDelete deletes the record awaiting confirmation and returns its id.
func (v *View[T, P]) ConfirmDelete(ctx context.Context) (string, error) {
	v.mu.Lock()
	id := v.pendingDelete
	v.pendingDelete = ""
	v.mutationErr = nil
	v.notice = ""
	v.mu.Unlock()
	if id == "" {
		return "", ErrNoPendingDelete
	}

	if err := v.source.Delete(ctx, id); err != nil {
		return id, v.mutationFailed(ctx, "delete", id, err)
	}

	v.mu.Lock()
	v.removeLocked(id)
	v.clampLocked()
	v.mu.Unlock()

	v.opts.logger.Debug("deleted", "id", id)
	return id, nil
}

// Delete deletes id only if it is the record awaiting confirmation.
func (v *View[T, P]) Delete(ctx context.Context, id string) error {
	v.mu.Lock()
	pending := v.pendingDelete
	v.mu.Unlock()
	if id == "" || pending != id {
		return fmt.Errorf("%w: %s %s", ErrConfirmationRequired, v.schema.Entity, id)
	}
	_, err := v.ConfirmDelete(ctx)
	return err
}

func (v *View[T, P]) beginMutation() {
	v.mu.Lock()
	v.mutationErr = nil
	v.notice = ""
	v.mu.Unlock()
}

// mutationFailed records err without touching the collection, except that a
// record the server no longer knows is dropped.
func (v *View[T, P]) mutationFailed(ctx context.Context, op, id string, err error) error {
	v.mu.Lock()
	v.mutationErr = err
	if id != "" && errors.Is(err, repository.ErrNotFound) {
		if v.removeLocked(id) {
			v.notice = fmt.Sprintf("%s %s no longer exists and was removed from the list", v.schema.Entity, id)
			v.clampLocked()
		}
	}
	v.mu.Unlock()

	v.opts.logger.Warn(op+" failed", "id", id, "error", err)
	v.reportAuth(ctx, err)
	return fmt.Errorf("%s %s: %w", op, v.schema.Entity, err)
}

func (v *View[T, P]) reportAuth(ctx context.Context, err error) {
	if v.opts.onAuthError != nil && errors.Is(err, repository.ErrUnauthorized) {
		v.opts.onAuthError(ctx, err)
	}
}

func (v *View[T, P]) indexLocked(id string) int {
	return slices.IndexFunc(v.records, func(r T) bool { return v.schema.ID(r) == id })
}

func (v *View[T, P]) removeLocked(id string) bool {
	i := v.indexLocked(id)
	if i < 0 {
		return false
	}
	v.records = slices.Delete(v.records, i, i+1)
	if v.pendingDelete == id {
		v.pendingDelete = ""
	}
	return true
}

// clampLocked derives the current page and pulls the stored page back into range.
func (v *View[T, P]) clampLocked() Derived[T] {
	d := Derive(v.records, v.schema, v.query)
	v.query.Page = d.Page
	return d
}
