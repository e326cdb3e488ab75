// Package solver defines the contract between the schedule model and a MILP
// backend.
package solver

import (
	"context"
	"time"

	"github.com/kilianp07/eosched/core/milp"
)

// Solution is the outcome of one solve. Values is indexed by milp.VarID and
// is nil when the backend produced no assignment.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	Runtime   time.Duration
}

// HasValues reports whether an assignment is attached.
func (s Solution) HasValues() bool { return len(s.Values) > 0 }

// Value returns the value of a variable, or zero without an assignment.
func (s Solution) Value(id milp.VarID) float64 {
	if int(id) < 0 || int(id) >= len(s.Values) {
		return 0
	}
	return s.Values[id]
}

// Solver solves a binary linear program.
//
// Solve blocks until the backend terminates. A context deadline yields
// StatusNotSolved with the best incumbent, if any, and a nil error.
// Cancellation yields an error wrapping context.Canceled. Infeasible and
// unbounded models are reported through Status, never as errors.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *milp.Model) (Solution, error)
}
