package user

import (
	"time"

	"github.com/rpggio/taskdesk/internal/collection"
)

// Schema returns the collection schema for user lists.
func Schema(pageSize int) collection.Schema[User] {
	return collection.Schema[User]{
		Entity: "user",
		ID:     func(u User) string { return u.ID },
		Fields: []collection.Field[User]{
			{Name: "name", Kind: collection.KindText, Text: func(u User) string { return u.Name }},
			{Name: "email", Kind: collection.KindText, Text: func(u User) string { return u.Email }},
			{Name: "role", Kind: collection.KindEnum, Text: func(u User) string { return string(u.Role) }},
			{Name: "createdAt", Kind: collection.KindDate, Time: func(u User) time.Time { return u.CreatedAt }},
		},
		Searchable:   []string{"name", "email"},
		Filterable:   []string{"role"},
		Sortable:     []string{"name", "email", "role", "createdAt"},
		DefaultSort:  "name",
		DefaultOrder: collection.Asc,
		PageSize:     pageSize,
	}
}
