package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/eosched/core/events"
	coremetrics "github.com/kilianp07/eosched/core/metrics"
	"github.com/kilianp07/eosched/core/solver"
	"github.com/kilianp07/eosched/internal/eventbus"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{
		Variant: "base", Solver: "gonum", Status: "optimal", Collections: 6, SolveTime: time.Second,
	}))
	require.NoError(t, sink.RecordModelSize(coremetrics.ModelSizeEvent{Variant: "base", Variables: 28, Constraints: 70}))
	require.NoError(t, sink.RecordViolations(coremetrics.VerificationEvent{Variant: "base", Rules: map[string]int{"memory": 2}}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.solves.WithLabelValues("base", "gonum", "optimal")))
	assert.Equal(t, 6.0, testutil.ToFloat64(sink.collections.WithLabelValues("base")))
	assert.Equal(t, 28.0, testutil.ToFloat64(sink.variables.WithLabelValues("base")))
	assert.Equal(t, 70.0, testutil.ToFloat64(sink.constraints.WithLabelValues("base")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.violations.WithLabelValues("base", "memory")))

	// registering twice reuses the existing collectors
	again, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, again.RecordSolve(coremetrics.SolveEvent{Variant: "base", Solver: "gonum", Status: "optimal"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.solves.WithLabelValues("base", "gonum", "optimal")))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rr.Body.String(), "eosched_solves_total"))
}

func TestEventCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	bus.Publish(events.SolveStarted{Variant: "battery", Variables: 74, Constraints: 120})
	bus.Publish(events.SolveFinished{
		Variant: "battery", Solver: "gonum", Status: solver.StatusInfeasible,
		Violations: map[string]int{"battery_floor": 1},
	})
	bus.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop")
	}

	assert.Equal(t, 74.0, testutil.ToFloat64(sink.variables.WithLabelValues("battery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.solves.WithLabelValues("battery", "gonum", "infeasible")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.violations.WithLabelValues("battery", "battery_floor")))
}
