package model

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError reports a malformed input record. It is returned before any
// computation starts so callers never receive partial results for bad input.
type ValidationError struct {
	Record string
	ID     string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	target := e.Record
	if e.ID != "" {
		target = fmt.Sprintf("%s %q", e.Record, e.ID)
	}
	return fmt.Sprintf("invalid %s: %s %s", target, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(record, id, field, reason string) error {
	return &ValidationError{Record: record, ID: id, Field: field, Reason: reason}
}

func invalidCoord(record, id, field string, err error) error {
	return &ValidationError{Record: record, ID: id, Field: field, Reason: err.Error(), Err: err}
}

// Within reports whether v is a finite number in [lo,hi]. NaN is never within.
func Within(v, lo, hi float64) bool {
	return v >= lo && v <= hi && !math.IsInf(v, 0)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
