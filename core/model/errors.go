package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks structural input errors. Every InputError unwraps to it.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a structural defect in the instance data together with
// the offending field and, for list inputs, the zero-based row.
type InputError struct {
	Field  string
	Row    int // -1 when the field is not a list entry
	Reason string
}

func (e *InputError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func fieldErr(field, format string, args ...any) error {
	return &InputError{Field: field, Row: -1, Reason: fmt.Sprintf(format, args...)}
}

func rowErr(field string, row int, format string, args ...any) error {
	return &InputError{Field: field, Row: row, Reason: fmt.Sprintf(format, args...)}
}
