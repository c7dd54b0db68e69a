package collection

import (
	"errors"
	"fmt"

	"github.com/rpggio/taskdesk/internal/repository"
)

var (
	// ErrStale is returned to a Load caller whose response was superseded by a newer Load.
	ErrStale = errors.New("load superseded by a newer load")

	// ErrConfirmationRequired is returned when a delete is attempted without a pending confirmation.
	ErrConfirmationRequired = errors.New("delete requires confirmation")

	// ErrNoPendingDelete is returned by ConfirmDelete when nothing is awaiting confirmation.
	ErrNoPendingDelete = errors.New("no delete pending confirmation")

	// ErrUnknownField is returned when a query names a field the schema does not allow.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidQuery is returned for malformed query values.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrRecordNotInView is returned when a mutation names an id the view does not hold.
	ErrRecordNotInView = errors.New("record not in view")

	// ErrInvalidSchema is returned when a schema is inconsistent.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnexpectedReply is returned when an update reply is not the record that
	// was updated. It is a network-class failure.
	ErrUnexpectedReply = fmt.Errorf("%w: reply does not match the updated record", repository.ErrUnavailable)
)
