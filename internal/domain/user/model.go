package user

import (
	"fmt"
	"time"

	"github.com/rpggio/taskdesk/internal/domain/record"
)

// Role governs which views and actions a user can reach. Values are matched
// case-sensitively against the API.
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleProjectManager Role = "ProjectManager"
	RoleTeamMember     Role = "TeamMember"
)

// Roles lists every recognized role.
var Roles = []Role{RoleAdmin, RoleProjectManager, RoleTeamMember}

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleTeamMember:
		return true
	}
	return false
}

// ParseRole returns the role named s, or ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// User is an account as listed by the API.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref returns a reference to u carrying its summary.
func (u User) Ref() record.Ref {
	return record.Ref{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Payload is the body for creating or updating a user. Password is only sent
// on create.
type Payload struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// ValidateCreate checks the fields a new account needs.
func (p Payload) ValidateCreate() error {
	if err := record.RequireText("name", p.Name); err != nil {
		return err
	}
	if err := record.RequireText("email", p.Email); err != nil {
		return err
	}
	if err := record.RequireText("password", p.Password); err != nil {
		return err
	}
	return record.RequireOneOf("role", p.Role, Roles...)
}

// ValidateUpdate checks a partial update.
func (p Payload) ValidateUpdate() error {
	return record.RequireOneOf("role", p.Role, Roles...)
}
