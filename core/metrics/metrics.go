package metrics

import "time"

// SolveEvent describes one finished planning run.
type SolveEvent struct {
	RunID       string
	Variant     string
	Solver      string
	Status      string
	Objective   float64
	Collections int
	Nodes       int
	BuildTime   time.Duration
	SolveTime   time.Duration
	Time        time.Time
}

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// ModelSizeEvent is the size of a built model.
type ModelSizeEvent struct {
	Variant     string
	Variables   int
	Constraints int
	NonZeros    int
	Time        time.Time
}

// ModelSizeRecorder records model sizes.
type ModelSizeRecorder interface {
	RecordModelSize(ev ModelSizeEvent) error
}

// VerificationEvent counts verifier findings per rule for one run.
type VerificationEvent struct {
	RunID   string
	Variant string
	Rules   map[string]int
	Time    time.Time
}

// VerificationRecorder records verifier findings.
type VerificationRecorder interface {
	RecordViolations(ev VerificationEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error             { return nil }
func (NopSink) RecordModelSize(ModelSizeEvent) error     { return nil }
func (NopSink) RecordViolations(VerificationEvent) error { return nil }
