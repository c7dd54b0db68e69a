package collection

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Derived is the page of rows computed from a collection and a query.
type Derived[T any] struct {
	FilteredCount int `json:"filtered_count"`
	TotalPages    int `json:"total_pages"`
	Page          int `json:"page"`
	PageSize      int `json:"page_size"`
	Rows          []T `json:"rows"`
}

// Derive filters, sorts and paginates records. It is pure: records is not
// modified and the same inputs always produce the same output.
func Derive[T any](records []T, s Schema[T], q Query) Derived[T] {
	fold := cases.Fold()
	size := ClampPageSize(q.PageSize)

	filtered := filter(records, s, q, fold)
	sortRecords(filtered, s, q, fold)

	total := max(1, (len(filtered)+size-1)/size)
	page := min(max(1, q.Page), total)

	start := min((page-1)*size, len(filtered))
	end := min(start+size, len(filtered))
	rows := make([]T, end-start)
	copy(rows, filtered[start:end])

	return Derived[T]{
		FilteredCount: len(filtered),
		TotalPages:    total,
		Page:          page,
		PageSize:      size,
		Rows:          rows,
	}
}

type activeFilter[T any] struct {
	field Field[T]
	value string
}

func filter[T any](records []T, s Schema[T], q Query, fold cases.Caser) []T {
	var filters []activeFilter[T]
	// Sorted for a deterministic evaluation order.
	for _, name := range slices.Sorted(maps.Keys(q.Filters)) {
		value := q.Filters[name]
		if value == "" {
			continue
		}
		f, ok := s.field(name)
		if !ok || f.Text == nil {
			continue
		}
		if f.Kind == KindEnum {
			value = fold.String(value)
		}
		filters = append(filters, activeFilter[T]{field: f, value: value})
	}

	var searchable []Field[T]
	term := q.Search
	if term != "" {
		term = fold.String(term)
		for _, name := range s.Searchable {
			if f, ok := s.field(name); ok && f.Text != nil {
				searchable = append(searchable, f)
			}
		}
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		if matchesFilters(rec, filters, fold) && matchesSearch(rec, searchable, term, fold) {
			out = append(out, rec)
		}
	}
	return out
}

func matchesFilters[T any](rec T, filters []activeFilter[T], fold cases.Caser) bool {
	for _, af := range filters {
		got := af.field.Text(rec)
		if af.field.Kind == KindEnum {
			got = fold.String(got)
		}
		if got != af.value {
			return false
		}
	}
	return true
}

func matchesSearch[T any](rec T, fields []Field[T], term string, fold cases.Caser) bool {
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(fold.String(f.Text(rec)), term) {
			return true
		}
	}
	return false
}

// sortKey is precomputed once per record so the comparator does no folding.
type sortKey struct {
	text string
	unix int64
	nano int
	zero bool
}

func sortRecords[T any](records []T, s Schema[T], q Query, fold cases.Caser) {
	f, ok := s.field(q.SortField)
	if !ok || len(records) < 2 {
		return
	}

	type keyed struct {
		key sortKey
		rec T
	}
	items := make([]keyed, len(records))
	for i, rec := range records {
		items[i] = keyed{key: keyFor(f, rec, fold), rec: rec}
	}

	compare := compareKeys
	if q.SortOrder == Desc {
		compare = func(a, b sortKey) int { return compareKeys(b, a) }
	}
	slices.SortStableFunc(items, func(a, b keyed) int { return compare(a.key, b.key) })

	for i := range items {
		records[i] = items[i].rec
	}
}

func keyFor[T any](f Field[T], rec T, fold cases.Caser) sortKey {
	if f.Kind == KindDate {
		t := f.Time(rec)
		if t.IsZero() {
			return sortKey{zero: true}
		}
		return sortKey{unix: t.Unix(), nano: t.Nanosecond()}
	}
	return sortKey{text: fold.String(f.Text(rec))}
}

// compareKeys orders zero dates first, then instant, then folded text.
func compareKeys(a, b sortKey) int {
	if a.zero != b.zero {
		if a.zero {
			return -1
		}
		return 1
	}
	return cmp.Or(
		cmp.Compare(a.unix, b.unix),
		cmp.Compare(a.nano, b.nano),
		strings.Compare(a.text, b.text),
	)
}
