package project

import (
	"time"

	"github.com/rpggio/taskdesk/internal/collection"
)

// Schema returns the collection schema for project lists. Newest projects come first.
func Schema(pageSize int) collection.Schema[Project] {
	return collection.Schema[Project]{
		Entity: "project",
		ID:     func(p Project) string { return p.ID },
		Fields: []collection.Field[Project]{
			{Name: "name", Kind: collection.KindText, Text: func(p Project) string { return p.Name }},
			{Name: "description", Kind: collection.KindText, Text: func(p Project) string { return p.Description }},
			{Name: "status", Kind: collection.KindEnum, Text: func(p Project) string { return string(p.Status) }},
			{Name: "projectManager", Kind: collection.KindRef, Text: func(p Project) string { return p.ProjectManager.ID }},
			{Name: "createdAt", Kind: collection.KindDate, Time: func(p Project) time.Time { return p.CreatedAt }},
		},
		Searchable:   []string{"name", "description"},
		Filterable:   []string{"status", "projectManager"},
		Sortable:     []string{"createdAt", "name", "status"},
		DefaultSort:  "createdAt",
		DefaultOrder: collection.Desc,
		PageSize:     pageSize,
	}
}
