package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the record to all sinks and joins their errors.
func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordSolve(ev))
	}
	return errors.Join(errs...)
}

// RecordModelSize forwards to the sinks that support it.
func (m *MultiSink) RecordModelSize(ev ModelSizeEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(ModelSizeRecorder); ok {
			errs = append(errs, r.RecordModelSize(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordViolations forwards to the sinks that support it.
func (m *MultiSink) RecordViolations(ev VerificationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(VerificationRecorder); ok {
			errs = append(errs, r.RecordViolations(ev))
		}
	}
	return errors.Join(errs...)
}
