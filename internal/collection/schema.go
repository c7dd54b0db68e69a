package collection

import (
	"fmt"
	"slices"
	"time"
)

// FieldKind controls how a field is compared by filters and sorts.
type FieldKind int

const (
	// KindText is free text: searchable, sorted case-insensitively.
	KindText FieldKind = iota
	// KindEnum is an enumerated value: filters match case-insensitively.
	KindEnum
	// KindRef is a relation id: filters match exactly.
	KindRef
	// KindDate is an instant: sorted chronologically, zero values first.
	KindDate
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	case KindDate:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes one named field of T. Date fields set Time, all others set Text.
type Field[T any] struct {
	Name   string
	Kind   FieldKind
	Text   func(T) string
	Time   func(T) time.Time
}

// Schema is the per-entity configuration of a collection view.
type Schema[T any] struct {
	Entity       string
	ID           func(T) string
	Fields       []Field[T]
	Searchable   []string
	Filterable   []string
	Sortable     []string
	DefaultSort  string
	DefaultOrder Order
	PageSize     int
}

func (s Schema[T]) field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Validate checks that every field referenced by the schema is declared with the
// accessor its kind needs.
func (s Schema[T]) Validate() error {
	if s.Entity == "" {
		return fmt.Errorf("%w: schema entity is required", ErrInvalidSchema)
	}
	if s.ID == nil {
		return fmt.Errorf("%w: %s schema has no id accessor", ErrInvalidSchema, s.Entity)
	}
	for _, f := range s.Fields {
		if f.Kind == KindDate && f.Time == nil {
			return fmt.Errorf("%w: %s.%s is a date field without a time accessor", ErrInvalidSchema, s.Entity, f.Name)
		}
		if f.Kind != KindDate && f.Text == nil {
			return fmt.Errorf("%w: %s.%s has no text accessor", ErrInvalidSchema, s.Entity, f.Name)
		}
	}
	for _, name := range s.Searchable {
		f, ok := s.field(name)
		if !ok || f.Kind == KindDate {
			return fmt.Errorf("%w: %s.%s is not a searchable text field", ErrInvalidSchema, s.Entity, name)
		}
	}
	for _, name := range s.Filterable {
		f, ok := s.field(name)
		if !ok || f.Kind == KindDate {
			return fmt.Errorf("%w: %s.%s cannot be filtered", ErrInvalidSchema, s.Entity, name)
		}
	}
	for _, name := range s.Sortable {
		if _, ok := s.field(name); !ok {
			return fmt.Errorf("%w: %s.%s is not declared", ErrInvalidSchema, s.Entity, name)
		}
	}
	if s.DefaultSort != "" && !slices.Contains(s.Sortable, s.DefaultSort) {
		return fmt.Errorf("%w: default sort %s.%s is not sortable", ErrInvalidSchema, s.Entity, s.DefaultSort)
	}
	return nil
}

// DefaultQuery returns the query state a fresh view of this entity starts with.
func (s Schema[T]) DefaultQuery() Query {
	order := s.DefaultOrder
	if order == "" {
		order = Asc
	}
	return Query{
		Filters:   map[string]string{},
		SortField: s.DefaultSort,
		SortOrder: order,
		Page:      1,
		PageSize:  ClampPageSize(s.PageSize),
	}
}
