package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/eosched/core/metrics"
)

// PromSink records planning runs in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	solveTime   *prometheus.HistogramVec
	buildTime   *prometheus.HistogramVec
	variables   *prometheus.GaugeVec
	constraints *prometheus.GaugeVec
	collections *prometheus.GaugeVec
	violations  *prometheus.CounterVec
}

// NewPromSink registers the planning metrics on the default registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eosched_solves_total",
			Help: "Planning runs by outcome",
		}, []string{"variant", "solver", "status"}),
		solveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eosched_solve_duration_seconds",
			Help:    "Time spent in the solver",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
		}, []string{"variant", "solver"}),
		buildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eosched_build_duration_seconds",
			Help:    "Time spent building the constraint model",
			Buckets: prometheus.DefBuckets,
		}, []string{"variant"}),
		variables: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eosched_model_variables",
			Help: "Decision variables of the last built model",
		}, []string{"variant"}),
		constraints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eosched_model_constraints",
			Help: "Constraints of the last built model",
		}, []string{"variant"}),
		collections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eosched_scheduled_collections",
			Help: "Collections in the last schedule",
		}, []string{"variant"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eosched_verification_violations_total",
			Help: "Verifier findings by rule",
		}, []string{"variant", "rule"}),
	}
	var err error
	if s.solves, err = register(reg, s.solves); err != nil {
		return nil, err
	}
	if s.solveTime, err = register(reg, s.solveTime); err != nil {
		return nil, err
	}
	if s.buildTime, err = register(reg, s.buildTime); err != nil {
		return nil, err
	}
	if s.variables, err = register(reg, s.variables); err != nil {
		return nil, err
	}
	if s.constraints, err = register(reg, s.constraints); err != nil {
		return nil, err
	}
	if s.collections, err = register(reg, s.collections); err != nil {
		return nil, err
	}
	if s.violations, err = register(reg, s.violations); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the run and observes its timings.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Variant, ev.Solver, ev.Status).Inc()
	s.solveTime.WithLabelValues(ev.Variant, ev.Solver).Observe(ev.SolveTime.Seconds())
	s.buildTime.WithLabelValues(ev.Variant).Observe(ev.BuildTime.Seconds())
	s.collections.WithLabelValues(ev.Variant).Set(float64(ev.Collections))
	return nil
}

// RecordModelSize sets the model size gauges.
func (s *PromSink) RecordModelSize(ev coremetrics.ModelSizeEvent) error {
	s.variables.WithLabelValues(ev.Variant).Set(float64(ev.Variables))
	s.constraints.WithLabelValues(ev.Variant).Set(float64(ev.Constraints))
	return nil
}

// RecordViolations adds the verifier findings.
func (s *PromSink) RecordViolations(ev coremetrics.VerificationEvent) error {
	for rule, n := range ev.Rules {
		s.violations.WithLabelValues(ev.Variant, rule).Add(float64(n))
	}
	return nil
}
