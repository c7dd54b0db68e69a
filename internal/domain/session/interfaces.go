package session

import "context"

// Authenticator exchanges credentials for a Grant.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Grant, error)
	Register(ctx context.Context, name, email, password string) (Grant, error)
}
