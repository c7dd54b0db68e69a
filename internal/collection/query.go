package collection

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc" or "desc" in any case.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("%w: sort order %q", ErrInvalidQuery, s)
}

const (
	// DefaultPageSize is the page size used when a schema does not set one.
	DefaultPageSize = 5
	// MaxPageSize bounds client-chosen page sizes.
	MaxPageSize = 100
)

// ClampPageSize returns size bounded to [1, MaxPageSize], with zero or negative
// values mapped to DefaultPageSize.
func ClampPageSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Query is the user-controlled view state. It is never persisted.
type Query struct {
	Search    string            `json:"search"`
	Filters   map[string]string `json:"filters"`
	SortField string            `json:"sort_field"`
	SortOrder Order             `json:"sort_order"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// Clone returns a copy that shares no map with q.
func (q Query) Clone() Query {
	out := q
	out.Filters = maps.Clone(q.Filters)
	if out.Filters == nil {
		out.Filters = map[string]string{}
	}
	return out
}

// QueryPatch is a partial query update. Nil fields are left unchanged. A filter
// set to the empty string is removed.
type QueryPatch struct {
	Search       *string           `json:"search,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	ClearFilters bool              `json:"clear_filters,omitempty"`
	SortField    *string           `json:"sort_field,omitempty"`
	SortOrder    *Order            `json:"sort_order,omitempty"`
	Page         *int              `json:"page,omitempty"`
	PageSize     *int              `json:"page_size,omitempty"`
}

// apply merges p into q after checking it against the schema. Any change to the
// result set definition resets the page to 1.
func apply[T any](s Schema[T], q Query, p QueryPatch) (Query, error) {
	if p.SortField != nil && *p.SortField != "" && !slices.Contains(s.Sortable, *p.SortField) {
		return q, fmt.Errorf("%w: %s cannot be sorted by %q", ErrUnknownField, s.Entity, *p.SortField)
	}
	for name := range p.Filters {
		if !slices.Contains(s.Filterable, name) {
			return q, fmt.Errorf("%w: %s cannot be filtered by %q", ErrUnknownField, s.Entity, name)
		}
	}
	if p.SortOrder != nil && *p.SortOrder != Asc && *p.SortOrder != Desc {
		return q, fmt.Errorf("%w: sort order %q", ErrInvalidQuery, *p.SortOrder)
	}

	next := q.Clone()
	reset := false

	if p.Search != nil && *p.Search != next.Search {
		next.Search = *p.Search
		reset = true
	}
	if p.ClearFilters && len(next.Filters) > 0 {
		next.Filters = map[string]string{}
		reset = true
	}
	for name, value := range p.Filters {
		current, ok := next.Filters[name]
		switch {
		case value == "" && ok:
			delete(next.Filters, name)
			reset = true
		case value != "" && current != value:
			next.Filters[name] = value
			reset = true
		}
	}
	if p.SortField != nil {
		field := *p.SortField
		if field == "" {
			field = s.DefaultSort
		}
		if field != next.SortField {
			next.SortField = field
			reset = true
		}
	}
	if p.SortOrder != nil && *p.SortOrder != next.SortOrder {
		next.SortOrder = *p.SortOrder
		reset = true
	}
	if p.PageSize != nil {
		size := ClampPageSize(*p.PageSize)
		if size != next.PageSize {
			next.PageSize = size
			reset = true
		}
	}

	if reset {
		next.Page = 1
	} else if p.Page != nil {
		next.Page = max(1, *p.Page)
	}
	return next, nil
}
