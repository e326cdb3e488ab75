package solver

import (
	"fmt"
	"strings"
)

// Status is the termination state reported by a solver.
type Status int

const (
	// StatusNotSolved means the solver stopped before proving optimality,
	// typically on a deadline. An incumbent may still be attached.
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUndefined
)

var statusNames = [...]string{"not-solved", "optimal", "infeasible", "unbounded", "undefined"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for n, name := range statusNames {
		if strings.EqualFold(s, name) {
			return Status(n), nil
		}
	}
	return StatusUndefined, fmt.Errorf("unknown status %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
