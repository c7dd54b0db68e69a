package task

import (
	"time"

	"github.com/rpggio/taskdesk/internal/domain/record"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists task statuses in workflow order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Priority ranks tasks.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a unit of work within a project.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Project     record.Ref `json:"project"`
	AssignedTo  record.Ref `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Due returns the due date, or the zero time when none is set.
func (t Task) Due() time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return *t.DueDate
}

// Payload is the body for creating or updating a task. Relations are plain ids.
type Payload struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Project     string     `json:"project,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
}

// StatusPayload is the only update a team member may send.
func StatusPayload(s Status) Payload {
	return Payload{Status: s}
}

// StatusOnly reports whether p changes nothing but the status.
func (p Payload) StatusOnly() bool {
	return p.Status != "" && p == Payload{Status: p.Status}
}

// ValidateCreate checks the fields a new task needs.
func (p Payload) ValidateCreate() error {
	if err := record.RequireText("title", p.Title); err != nil {
		return err
	}
	if err := record.RequireText("project", p.Project); err != nil {
		return err
	}
	return p.ValidateUpdate()
}

// ValidateUpdate checks a partial update.
func (p Payload) ValidateUpdate() error {
	if err := record.RequireOneOf("status", p.Status, Statuses...); err != nil {
		return err
	}
	return record.RequireOneOf("priority", p.Priority, Priorities...)
}
