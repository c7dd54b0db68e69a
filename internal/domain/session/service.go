package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpggio/taskdesk/internal/repository"
)

// Store holds the signed-in identity and its token, mirrored to durable storage
// so a restart can pick the session back up.
type Store struct {
	auth    Authenticator
	storage repository.KeyValueStore
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.RWMutex
	identity  *Identity
	token     string
	listeners []ChangeFunc
}

// NewStore creates a signed-out store.
func NewStore(auth Authenticator, storage repository.KeyValueStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		auth:    auth,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the clock used to check token expiry.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// OnChange registers fn to run after every sign-in and sign-out.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string) (Identity, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Identity{}, &AuthError{Op: "login", Err: ErrInvalidCredentials}
	}
	grant, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return Identity{}, &AuthError{Op: "login", Err: err}
	}
	return s.accept(ctx, "login", grant)
}

// Register creates an account and signs in as it.
func (s *Store) Register(ctx context.Context, name, email, password string) (Identity, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Identity{}, &AuthError{Op: "register", Err: ErrInvalidCredentials}
	}
	grant, err := s.auth.Register(ctx, name, email, password)
	if err != nil {
		return Identity{}, &AuthError{Op: "register", Err: err}
	}
	return s.accept(ctx, "register", grant)
}

func (s *Store) accept(ctx context.Context, op string, grant Grant) (Identity, error) {
	if grant.Token == "" || grant.Identity.ID == "" {
		return Identity{}, &AuthError{Op: op, Err: ErrInvalidGrant}
	}
	raw, err := json.Marshal(grant.Identity)
	if err != nil {
		return Identity{}, fmt.Errorf("encoding identity: %w", err)
	}
	if err := s.storage.Set(ctx, KeyToken, grant.Token); err != nil {
		return Identity{}, fmt.Errorf("persisting session: %w", err)
	}
	if err := s.storage.Set(ctx, KeyUser, string(raw)); err != nil {
		s.discard(ctx)
		return Identity{}, fmt.Errorf("persisting session: %w", err)
	}

	id := grant.Identity
	s.set(&id, grant.Token)
	s.logger.Info("signed in", "user_id", id.ID, "role", id.Role)
	return id, nil
}

// Restore loads a persisted session. Missing, partial or unreadable state ends
// signed out with the stored entries removed; only storage failures are returned.
func (s *Store) Restore(ctx context.Context) error {
	token, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("reading session token: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("reading session user: %w", err)
	}

	if !hasToken && !hasUser {
		s.set(nil, "")
		return nil
	}

	id, reason := parsePersisted(token, hasToken, raw, hasUser, s.now())
	if reason != "" {
		s.logger.Warn("discarding persisted session", "reason", reason)
		s.set(nil, "")
		return s.discard(ctx)
	}

	s.set(&id, token)
	s.logger.Info("session restored", "user_id", id.ID, "role", id.Role)
	return nil
}

func parsePersisted(token string, hasToken bool, raw string, hasUser bool, now time.Time) (Identity, string) {
	if !hasToken || !hasUser {
		return Identity{}, "partial session"
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, "unreadable identity"
	}
	if id.ID == "" {
		return Identity{}, "identity without id"
	}
	if reason := checkToken(token, now); reason != "" {
		return Identity{}, reason
	}
	return id, ""
}

// checkToken reads the token's claims without verifying its signature; the
// server remains the authority on validity. Tokens that are not shaped like a
// JWT are opaque and have no known expiry.
func checkToken(token string, now time.Time) string {
	if token == "" {
		return "empty token"
	}
	if strings.Count(token, ".") != 2 {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "malformed token"
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "malformed token expiry"
	}
	if exp != nil && !exp.After(now) {
		return "expired token"
	}
	return ""
}

// Logout forgets the session. It is safe to call when already signed out.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	wasSignedIn := s.identity != nil
	s.mu.RUnlock()

	s.set(nil, "")
	if err := s.discard(ctx); err != nil {
		return err
	}
	if wasSignedIn {
		s.logger.Info("signed out")
	}
	return nil
}

// HandleError signs out when err is an authentication failure and reports
// whether it did.
func (s *Store) HandleError(ctx context.Context, err error) bool {
	if err == nil || !errors.Is(err, repository.ErrUnauthorized) {
		return false
	}
	s.logger.Warn("forcing sign-out after authentication failure", "error", err)
	if logoutErr := s.Logout(ctx); logoutErr != nil {
		s.logger.Error("clearing session storage", "error", logoutErr)
	}
	return true
}

// Identity returns the signed-in user.
func (s *Store) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// Token returns the bearer token for outgoing requests.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) discard(ctx context.Context) error {
	if err := s.storage.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clearing session storage: %w", err)
	}
	return nil
}

func (s *Store) set(id *Identity, token string) {
	s.mu.Lock()
	s.identity = id
	s.token = token
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	var current Identity
	if id != nil {
		current = *id
	}
	for _, fn := range listeners {
		fn(current, id != nil)
	}
}
