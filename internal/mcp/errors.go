package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/collection"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/access"
	"github.com/rpggio/taskdesk/internal/domain/record"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

// Error codes returned in tool error results.
const (
	CodeAuthRequired         = "AUTH_REQUIRED"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeNetwork              = "NETWORK"
	CodeForbidden            = "FORBIDDEN"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeInternal             = "INTERNAL"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps console errors to MCP error codes. A failed sign-in matches
// both the auth class and its cause; the cause decides the code.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var denied *console.DeniedError
	if errors.As(err, &denied) {
		switch denied.Decision.Outcome {
		case access.Deny:
			return &APIError{Code: CodeForbidden, Message: err.Error(), RecoveryHint: "Call layout to see what this role can do"}
		default:
			return &APIError{Code: CodeAuthRequired, Message: err.Error(), RecoveryHint: "Call login first"}
		}
	}

	switch {
	case errors.Is(err, collection.ErrConfirmationRequired), errors.Is(err, collection.ErrNoPendingDelete):
		return &APIError{Code: CodeConfirmationRequired, Message: err.Error(), RecoveryHint: "Call request_delete, then confirm_delete"}
	case errors.Is(err, api.ErrNetwork):
		return &APIError{Code: CodeNetwork, Message: api.Message(err), RecoveryHint: "Check the API server and retry"}
	case errors.Is(err, api.ErrValidation),
		errors.Is(err, record.ErrInvalidInput),
		errors.Is(err, record.ErrInvalidRef),
		errors.Is(err, user.ErrUnknownRole),
		errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, collection.ErrUnknownField),
		errors.Is(err, collection.ErrInvalidQuery),
		errors.Is(err, console.ErrPayloadType),
		errors.Is(err, console.ErrNotCollection),
		errors.Is(err, console.ErrUnknownForm):
		return &APIError{Code: CodeValidationFailed, Message: api.Message(err), RecoveryHint: "Fix the input and retry"}
	case errors.Is(err, api.ErrAuth):
		return &APIError{Code: CodeAuthRequired, Message: api.Message(err), RecoveryHint: "Sign in again with login"}
	case errors.Is(err, api.ErrNotFound), errors.Is(err, collection.ErrRecordNotInView):
		return &APIError{Code: CodeNotFound, Message: api.Message(err), RecoveryHint: "Refresh the view and check the id"}
	default:
		return &APIError{Code: CodeInternal, Message: err.Error()}
	}
}
