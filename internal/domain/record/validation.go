package record

import (
	"fmt"
	"slices"
	"strings"
)

// RequireText fails with ErrInvalidInput when value is blank.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return nil
}

// RequireOneOf fails with ErrInvalidInput unless value is one of allowed.
// An empty value passes so the server default applies.
func RequireOneOf[S ~string](field string, value S, allowed ...S) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidInput, field, allowed, value)
}
