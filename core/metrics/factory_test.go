package metrics_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/kilianp07/eosched/core/factory"
	metrics "github.com/kilianp07/eosched/core/metrics"
	_ "github.com/kilianp07/eosched/infra/metrics"
)

// Built-in sinks are registered by infra/metrics; unknown types fail.
func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if s == nil {
		t.Fatal("expected sink instance")
	}
	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	if !errors.Is(err, factory.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	for _, name := range []string{"nop", "prometheus", "influx"} {
		if !slices.Contains(metrics.SinkTypes(), name) {
			t.Fatalf("sink %q not registered", name)
		}
	}
}

// Zero configs give a NopSink, one config the sink itself and several a
// MultiSink.
func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create single: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected the sink itself, got %T", s)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}
}

func TestRegisterMetricsSink_Duplicate(t *testing.T) {
	err := metrics.RegisterMetricsSink("nop", func(map[string]any) (metrics.MetricsSink, error) {
		return metrics.NopSink{}, nil
	})
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
