package extractor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDamage = errors.New("invalid Damage format")
	ErrInvalidWeight = errors.New("invalid Weight format")
	ErrMissingFields = errors.New("missing fields")
)

// ExtractionError is returned for every failed extraction. Kind is one of the
// sentinel errors above, so callers can branch with errors.Is.
type ExtractionError struct {
	Kind error
	// Value is the offending raw value for InvalidDamage and InvalidWeight.
	Value string
	// Missing lists absent required fields in canonical order.
	Missing []string
	// Parsed holds the raw values that were found before the failure.
	Parsed map[string]string
}

func (e *ExtractionError) Error() string {
	if errors.Is(e.Kind, ErrMissingFields) {
		return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%v: %q", e.Kind, e.Value)
}

func (e *ExtractionError) Unwrap() error {
	return e.Kind
}

// Reason is a stable snake_case label for the failure kind, used for logs,
// metrics and API responses.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidDamage):
		return "invalid_damage"
	case errors.Is(err, ErrInvalidWeight):
		return "invalid_weight"
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	}
	return "error"
}
