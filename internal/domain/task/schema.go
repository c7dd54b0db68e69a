package task

import (
	"time"

	"github.com/rpggio/taskdesk/internal/collection"
)

// Schema returns the collection schema for task lists. Tasks due soonest come first.
func Schema(pageSize int) collection.Schema[Task] {
	return collection.Schema[Task]{
		Entity: "task",
		ID:     func(t Task) string { return t.ID },
		Fields: []collection.Field[Task]{
			{Name: "title", Kind: collection.KindText, Text: func(t Task) string { return t.Title }},
			{Name: "description", Kind: collection.KindText, Text: func(t Task) string { return t.Description }},
			{Name: "status", Kind: collection.KindEnum, Text: func(t Task) string { return string(t.Status) }},
			{Name: "priority", Kind: collection.KindEnum, Text: func(t Task) string { return string(t.Priority) }},
			{Name: "project", Kind: collection.KindRef, Text: func(t Task) string { return t.Project.ID }},
			{Name: "assignedTo", Kind: collection.KindRef, Text: func(t Task) string { return t.AssignedTo.ID }},
			{Name: "dueDate", Kind: collection.KindDate, Time: Task.Due},
			{Name: "createdAt", Kind: collection.KindDate, Time: func(t Task) time.Time { return t.CreatedAt }},
		},
		Searchable:   []string{"title", "description"},
		Filterable:   []string{"status", "priority", "project", "assignedTo"},
		Sortable:     []string{"dueDate", "title", "status", "priority", "createdAt"},
		DefaultSort:  "dueDate",
		DefaultOrder: collection.Asc,
		PageSize:     pageSize,
	}
}
