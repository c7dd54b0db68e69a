package console

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/domain/access"
)

var (
	// ErrDenied matches every *DeniedError.
	ErrDenied = errors.New("not permitted")
	// ErrNotCollection indicates a view that has no collection behind it.
	ErrNotCollection = errors.New("view has no collection")
	// ErrUnknownForm indicates a form name the console does not define.
	ErrUnknownForm = errors.New("unknown form")
	// ErrPayloadType indicates a payload of the wrong type for the view.
	ErrPayloadType = errors.New("payload does not match view")
)

// DeniedError reports a gate decision that blocked an operation. No request
// was sent.
type DeniedError struct {
	View     access.View
	Action   access.Action
	Decision access.Decision
}

func (e *DeniedError) Error() string {
	target := string(e.View)
	if e.Action != "" {
		target = fmt.Sprintf("%s in %s", e.Action, e.View)
	}
	return fmt.Sprintf("%s: %s (%s)", target, e.Decision.Outcome, e.Decision.Placeholder)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}
