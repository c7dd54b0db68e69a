package session

import "github.com/rpggio/taskdesk/internal/domain/user"

// Durable storage keys for the persisted session.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Identity is the signed-in user. It never carries the token.
type Identity struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

// Grant is what a successful login or registration returns.
type Grant struct {
	Token    string
	Identity Identity
}

// ChangeFunc observes sign-in and sign-out. ok is false after sign-out.
type ChangeFunc func(id Identity, ok bool)
