package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/eosched/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordSolve(t *testing.T) {
	rec := &lineRecorder{}
	sink := NewInfluxSink(rec.server(t).URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.SolveEvent{
		RunID: "r1", Variant: "processing", Solver: "gonum", Status: "optimal",
		Objective: 6, Collections: 6, Nodes: 12,
		BuildTime: 1500 * time.Microsecond, SolveTime: 2 * time.Second, Time: now,
	}
	if err := sink.RecordSolve(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("schedule_solve").
		AddTag("variant", "processing").
		AddTag("solver", "gonum").
		AddTag("status", "optimal").
		AddTag("run_id", "r1").
		AddField("objective", 6.0).
		AddField("collections", 6).
		AddField("nodes", 12).
		AddField("build_ms", 1.5).
		AddField("solve_ms", 2000.0).
		SetTime(now)
	if len(rec.bodies) != 1 || rec.bodies[0] != line(p) {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordModelSizeAndViolations(t *testing.T) {
	rec := &lineRecorder{}
	sink := NewInfluxSink(rec.server(t).URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordModelSize(coremetrics.ModelSizeEvent{Variant: "base", Variables: 28, Constraints: 70, NonZeros: 140, Time: now}); err != nil {
		t.Fatalf("record size: %v", err)
	}
	if err := sink.RecordViolations(coremetrics.VerificationEvent{RunID: "r1", Variant: "base", Rules: map[string]int{"memory": 2}, Time: now}); err != nil {
		t.Fatalf("record violations: %v", err)
	}
	size := write.NewPointWithMeasurement("model_size").
		AddTag("variant", "base").
		AddField("variables", 28).
		AddField("constraints", 70).
		AddField("nonzeros", 140).
		SetTime(now)
	viol := write.NewPointWithMeasurement("schedule_violation").
		AddTag("variant", "base").
		AddTag("rule", "memory").
		AddTag("run_id", "r1").
		AddField("count", 2).
		SetTime(now)
	if len(rec.bodies) != 2 || rec.bodies[0] != line(size) || rec.bodies[1] != line(viol) {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
