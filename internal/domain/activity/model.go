package activity

import "time"

// Type is what a journal entry records.
type Type string

const (
	TypeCreated     Type = "created"
	TypeUpdated     Type = "updated"
	TypeDeleted     Type = "deleted"
	TypeTeamChanged Type = "team_changed"
)

// Entry is one mutation made through the console.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	View      string    `json:"view"`
	Type      Type      `json:"type"`
	RecordID  string    `json:"record_id"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
