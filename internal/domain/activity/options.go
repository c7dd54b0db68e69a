package activity

// Limits for List.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListOptions filters journal entries. Entries come newest first.
type ListOptions struct {
	UserID string
	View   string
	Limit  int
}
