package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rpggio/taskdesk/internal/repository"
	"github.com/tidwall/gjson"
)

// Failure classes. Every error returned by this package matches exactly one.
var (
	ErrNotFound   = repository.ErrNotFound
	ErrValidation = repository.ErrValidation
	ErrAuth       = repository.ErrUnauthorized
	ErrNetwork    = repository.ErrUnavailable
)

// Error describes a failed API call.
type Error struct {
	Kind      error
	Status    int
	Message   string
	Method    string
	Path      string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Method + " " + e.Path))
	if e.Status != 0 {
		fmt.Fprintf(&b, ": %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindForStatus maps an HTTP status to its failure class. It returns nil for
// success statuses.
func KindForStatus(status int) error {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status >= http.StatusInternalServerError:
		return ErrNetwork
	default:
		return ErrValidation
	}
}

// Outcome returns the metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "network"
	}
}

// Message returns the server-supplied message of err, or err's text.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// serverMessage pulls the human-readable message out of an error body.
func serverMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error.message", "error", "detail", "title"} {
			if r := gjson.GetBytes(body, path); r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
				return strings.TrimSpace(r.Str)
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}
