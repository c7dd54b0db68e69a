package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/collection"
	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/record"
)

// Page is a view snapshot with the gate decision and the caller's actions.
// Rows holds the typed records of the view, e.g. []task.Task.
type Page struct {
	View          access.View      `json:"view"`
	Decision      access.Decision  `json:"-"`
	Outcome       string           `json:"outcome"`
	Placeholder   string           `json:"placeholder,omitempty"`
	Entity        string           `json:"entity,omitempty"`
	Rows          any              `json:"rows,omitempty"`
	FilteredCount int              `json:"filteredCount"`
	TotalPages    int              `json:"totalPages"`
	Page          int              `json:"page"`
	PageSize      int              `json:"pageSize"`
	Query         collection.Query `json:"query"`
	Loading       bool             `json:"loading"`
	Loaded        bool             `json:"loaded"`
	LoadError     string           `json:"loadError,omitempty"`
	MutationError string           `json:"mutationError,omitempty"`
	Notice        string           `json:"notice,omitempty"`
	PendingDelete string           `json:"pendingDelete,omitempty"`
	Actions       []access.Action  `json:"actions,omitempty"`
}

func decided(view access.View, d access.Decision) Page {
	return Page{View: view, Decision: d, Outcome: d.Outcome.String(), Placeholder: d.Placeholder}
}

// handle erases the record and payload types of a view so the console can
// hold all of them in one table.
type handle interface {
	load(ctx context.Context) error
	loaded() bool
	page() Page
	setQuery(patch collection.QueryPatch) error
	decode(data []byte) (any, error)
	create(ctx context.Context, payload any) (any, error)
	update(ctx context.Context, id string, payload any) (any, error)
	requestDelete(id string) error
	confirmDelete(ctx context.Context) (string, error)
	cancelDelete()
	records() any
	entity() string
	recordID(rec any) string
}

type validated interface {
	ValidateCreate() error
	ValidateUpdate() error
}

type typed[T any, P validated] struct {
	view *collection.View[T, P]
}

func newTyped[T any, P validated](view *collection.View[T, P]) *typed[T, P] {
	return &typed[T, P]{view: view}
}

func (h *typed[T, P]) load(ctx context.Context) error {
	err := h.view.Load(ctx)
	if errors.Is(err, collection.ErrStale) {
		return nil
	}
	return err
}

func (h *typed[T, P]) loaded() bool {
	return h.view.Loaded()
}

func (h *typed[T, P]) page() Page {
	s := h.view.Snapshot()
	p := Page{
		Entity:        s.Entity,
		Rows:          s.Derived.Rows,
		FilteredCount: s.Derived.FilteredCount,
		TotalPages:    s.Derived.TotalPages,
		Page:          s.Derived.Page,
		PageSize:      s.Derived.PageSize,
		Query:         s.Query,
		Loading:       s.Loading,
		Loaded:        s.Loaded,
		Notice:        s.Notice,
		PendingDelete: s.PendingDelete,
	}
	if s.LoadErr != nil {
		p.LoadError = s.LoadErr.Error()
	}
	if s.MutationErr != nil {
		p.MutationError = s.MutationErr.Error()
	}
	return p
}

func (h *typed[T, P]) setQuery(patch collection.QueryPatch) error {
	_, err := h.view.SetQuery(patch)
	return err
}

func (h *typed[T, P]) decode(data []byte) (any, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", record.ErrInvalidInput, err)
	}
	return p, nil
}

func (h *typed[T, P]) payload(v any) (P, error) {
	p, ok := v.(P)
	if !ok {
		return p, fmt.Errorf("%w: got %T", ErrPayloadType, v)
	}
	return p, nil
}

func (h *typed[T, P]) create(ctx context.Context, v any) (any, error) {
	p, err := h.payload(v)
	if err != nil {
		return nil, err
	}
	if err := p.ValidateCreate(); err != nil {
		return nil, err
	}
	return h.view.Create(ctx, p)
}

func (h *typed[T, P]) update(ctx context.Context, id string, v any) (any, error) {
	p, err := h.payload(v)
	if err != nil {
		return nil, err
	}
	if err := p.ValidateUpdate(); err != nil {
		return nil, err
	}
	return h.view.Update(ctx, id, p)
}

func (h *typed[T, P]) requestDelete(id string) error {
	return h.view.RequestDelete(id)
}

func (h *typed[T, P]) confirmDelete(ctx context.Context) (string, error) {
	return h.view.ConfirmDelete(ctx)
}

func (h *typed[T, P]) cancelDelete() {
	h.view.CancelDelete()
}

func (h *typed[T, P]) records() any {
	return h.view.Records()
}

func (h *typed[T, P]) entity() string {
	return h.view.Schema().Entity
}

func (h *typed[T, P]) recordID(v any) string {
	rec, ok := v.(T)
	if !ok {
		return ""
	}
	return h.view.Schema().ID(rec)
}
