package project

import (
	"encoding/json"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/record"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
)

// Statuses lists the project statuses in display order.
var Statuses = []Status{StatusActive, StatusCompleted}

// Project groups tasks under a manager and a team.
type Project struct {
	ID             string              `json:"_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	Status         Status              `json:"status"`
	ProjectManager record.Ref          `json:"projectManager"`
	TeamMembers    record.Refs         `json:"teamMembers"`
	Files          []record.Attachment `json:"files,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Upload is a file sent with a project create or update.
type Upload struct {
	Name        string
	ContentType string
	Content     []byte
}

// Payload is the body for creating or updating a project. Relations are plain
// user ids. A nil TeamMembers leaves the team alone; an empty one clears it.
// When Files is non-empty the request is sent as multipart form data.
type Payload struct {
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Status         Status   `json:"status,omitempty"`
	ProjectManager string   `json:"projectManager,omitempty"`
	TeamMembers    []string `json:"teamMembers,omitempty"`
	Files          []Upload `json:"-"`
}

func (p Payload) MarshalJSON() ([]byte, error) {
	type plain Payload
	out := struct {
		plain
		TeamMembers *[]string `json:"teamMembers,omitempty"`
	}{plain: plain(p)}
	if p.TeamMembers != nil {
		out.TeamMembers = &p.TeamMembers
	}
	return json.Marshal(out)
}

// ValidateCreate checks the fields a new project needs.
func (p Payload) ValidateCreate() error {
	if err := record.RequireText("name", p.Name); err != nil {
		return err
	}
	return p.ValidateUpdate()
}

// ValidateUpdate checks a partial update.
func (p Payload) ValidateUpdate() error {
	return record.RequireOneOf("status", p.Status, Statuses...)
}

// TeamPayload replaces a project's team.
func TeamPayload(memberIDs []string) Payload {
	if memberIDs == nil {
		memberIDs = []string{}
	}
	return Payload{TeamMembers: memberIDs}
}
