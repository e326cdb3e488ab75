package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	solves, sizes int
	fail          bool
}

func (r *recordSink) RecordSolve(SolveEvent) error {
	r.solves++
	if r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recordSink) RecordModelSize(ModelSizeEvent) error {
	r.sizes++
	return nil
}

type solveOnly struct{ n int }

func (s *solveOnly) RecordSolve(SolveEvent) error { s.n++; return nil }

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{fail: true}
	s3 := &solveOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordSolve(SolveEvent{Variant: "base"}); err == nil {
		t.Fatalf("expected the failing sink's error")
	}
	if err := m.RecordModelSize(ModelSizeEvent{}); err != nil {
		t.Fatalf("record size: %v", err)
	}
	if err := m.RecordViolations(VerificationEvent{}); err != nil {
		t.Fatalf("record violations: %v", err)
	}
	if s1.solves != 1 || s2.solves != 1 || s3.n != 1 {
		t.Fatalf("solve not forwarded to every sink")
	}
	if s1.sizes != 1 || s2.sizes != 1 {
		t.Fatalf("sizes not forwarded")
	}
}
