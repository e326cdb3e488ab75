// Package gonumlp solves binary programs in process: LP relaxations with
// gonum's simplex inside a depth-first branch-and-bound.
package gonumlp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/eosched/core/factory"
	"github.com/kilianp07/eosched/core/logger"
	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/solver"
)

// Name is the registry key of this backend.
const Name = "gonum"

// Config tunes the search.
type Config struct {
	// Tolerance is handed to the simplex for reduced cost tests.
	Tolerance float64 `json:"tolerance"`
	// IntTolerance decides integrality and row satisfaction.
	IntTolerance float64 `json:"int_tolerance"`
	// MaxNodes bounds the tree; zero means unlimited.
	MaxNodes int `json:"max_nodes"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-9
	}
	if c.IntTolerance <= 0 {
		c.IntTolerance = 1e-6
	}
	if c.MaxNodes < 0 {
		c.MaxNodes = 0
	}
}

// Solver is the in-process backend.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New returns a solver with cfg, defaults applied.
func New(cfg Config, log logger.Logger) *Solver {
	cfg.SetDefaults()
	return &Solver{cfg: cfg, log: logger.OrNop(log)}
}

// NewFromConf decodes raw registry settings.
func NewFromConf(conf map[string]any, log logger.Logger) (*Solver, error) {
	var c Config
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("gonum solver config: %w", err)
	}
	return New(c, log), nil
}

func (s *Solver) Name() string { return Name }

// Solve runs branch-and-bound on m. A deadline returns the incumbent with
// StatusNotSolved, as does the node limit.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (solver.Solution, error) {
	start := time.Now()
	p := newProblem(m)
	sr := &search{p: p, cfg: s.cfg, log: s.log}
	err := sr.run(ctx)

	sol := solver.Solution{Nodes: sr.nodes, Runtime: time.Since(start)}
	if sr.incumb != nil {
		sol.Values = sr.incumb
		sol.Objective = p.objective(sr.best)
	}
	switch {
	case errors.Is(err, context.Canceled):
		sol.Status = solver.StatusNotSolved
		return sol, fmt.Errorf("gonum solve: %w", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errNodeLimit):
		s.log.Warnf("gonum solve stopped after %d nodes: %v", sr.nodes, err)
		sol.Status = solver.StatusNotSolved
	case err != nil:
		sol.Status = solver.StatusUndefined
		return sol, fmt.Errorf("gonum solve: %w", err)
	case sr.unbound:
		sol.Status = solver.StatusUnbounded
		sol.Values, sol.Objective = nil, 0
	case sr.incumb != nil:
		sol.Status = solver.StatusOptimal
	default:
		sol.Status = solver.StatusInfeasible
	}
	s.log.Debugw("gonum solve done", map[string]any{
		"status":    sol.Status.String(),
		"objective": sol.Objective,
		"nodes":     sol.Nodes,
		"runtime":   sol.Runtime.String(),
	})
	return sol, nil
}
