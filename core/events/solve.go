package events

import (
	"time"

	"github.com/kilianp07/eosched/core/solver"
)

// SolveStarted is published once the model is built, right before solving.
type SolveStarted struct {
	RunID       string
	Variant     string
	Solver      string
	Variables   int
	Constraints int
	BuildTime   time.Duration
	Time        time.Time
}

// SolveFinished is published when a run ends. Err is set when the run
// failed before producing a status.
type SolveFinished struct {
	RunID       string
	Variant     string
	Solver      string
	Status      solver.Status
	Objective   float64
	Collections int
	Processing  int
	Downlinks   int
	Nodes       int
	// Violations counts verifier findings per rule.
	Violations map[string]int
	BuildTime  time.Duration
	SolveTime  time.Duration
	Err        error
	Time       time.Time
}
