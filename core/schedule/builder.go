// Package schedule turns a validated instance into a binary program, decodes
// solver output into a schedule and re-checks schedules independently.
package schedule

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/eosched/core/logger"
	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// row is a constraint produced by a group before it is merged into the model.
type row struct {
	name  string
	expr  milp.Expr
	sense milp.Sense
	rhs   float64
	// keep emits the row even without variables so an unsatisfiable
	// constant row still makes the model infeasible.
	keep bool
}

type group struct {
	name string
	gen  func(*Fabric, *model.Instance) []row
}

// GroupStat reports how many rows a constraint group emitted.
type GroupStat struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// Problem is a built model together with the fabric needed to decode it.
type Problem struct {
	Model     *milp.Model
	Fabric    *Fabric
	Caps      model.Capabilities
	Instance  *model.Instance
	Objective Objective
	Groups    []GroupStat
	BuildTime time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) { b.log = logger.OrNop(l) }
}

// WithWorkers bounds the number of groups generated concurrently. Values
// below one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithObjective selects the objective function.
func WithObjective(o Objective) Option {
	return func(b *Builder) { b.objective = o }
}

// Builder composes constraint groups according to a capability set.
type Builder struct {
	inst      *model.Instance
	caps      model.Capabilities
	log       logger.Logger
	workers   int
	objective Objective
}

// NewBuilder returns a builder for inst.
func NewBuilder(inst *model.Instance, caps model.Capabilities, opts ...Option) *Builder {
	b := &Builder{inst: inst, caps: caps, log: logger.NopLogger{}, objective: ObjectiveCount}
	for _, o := range opts {
		o(b)
	}
	if b.workers < 1 {
		b.workers = runtime.GOMAXPROCS(0)
	}
	return b
}

// groups lists the constraint groups for the capability set in merge order.
func (b *Builder) groups() []group {
	gs := []group{
		{"collect_once_per_instant", collectOncePerInstant},
		{"collect_area_once", collectAreaOnce},
	}
	if b.caps.Processing {
		gs = append(gs, group{"memory", processingMemory})
	} else {
		gs = append(gs, group{"memory", baseMemory})
	}
	gs = append(gs,
		group{"downlink_capacity", downlinkCapacity},
		group{"uplink_capacity", uplinkCapacity},
	)
	if b.caps.Processing {
		gs = append(gs,
			group{"disposition", disposition},
			group{"sequential_processing", sequentialProcessing},
			group{"downlink_causality", downlinkCausality},
			group{"processing_causality", processingCausality},
		)
	} else {
		gs = append(gs,
			group{"transport", transport},
			group{"downlink_causality", downlinkCausality},
		)
	}
	if b.caps.Battery {
		gs = append(gs,
			group{"battery_floor", batteryFloor},
			group{"battery_ceiling", batteryCeiling},
		)
	}
	return gs
}

// Build allocates the fabric, generates every constraint group concurrently
// and merges them in a fixed order.
func (b *Builder) Build(ctx context.Context) (*Problem, error) {
	start := time.Now()
	if err := b.inst.Check(b.caps); err != nil {
		return nil, err
	}
	m := milp.New(b.caps.Variant())
	fab, err := NewFabric(m, b.inst, b.caps)
	if err != nil {
		return nil, fmt.Errorf("allocate variables: %w", err)
	}

	gs := b.groups()
	out := make([][]row, len(gs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for n, g := range gs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out[n] = g.gen(fab, b.inst)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := make([]GroupStat, len(gs))
	for n, g := range gs {
		st := GroupStat{Name: g.name}
		for _, r := range out[n] {
			if r.expr.Len() == 0 && !r.keep {
				st.Skipped++
				continue
			}
			if err := m.AddConstraint(r.name, r.expr, r.sense, r.rhs); err != nil {
				return nil, fmt.Errorf("group %s: %w", g.name, err)
			}
			st.Rows++
		}
		stats[n] = st
	}
	m.SetObjective(b.objective.expr(fab, b.inst), true)

	p := &Problem{
		Model:     m,
		Fabric:    fab,
		Caps:      b.caps,
		Instance:  b.inst,
		Objective: b.objective,
		Groups:    stats,
		BuildTime: time.Since(start),
	}
	ms := m.Stats()
	b.log.Debugw("model built", map[string]any{
		"variant":     b.caps.Variant(),
		"variables":   ms.Variables,
		"constraints": ms.Constraints,
		"non_zeros":   ms.NonZeros,
		"pruned":      fab.PrunedCounts(),
		"duration":    p.BuildTime.String(),
	})
	return p, nil
}

// Build is a convenience wrapper around NewBuilder(...).Build.
func Build(ctx context.Context, inst *model.Instance, caps model.Capabilities, opts ...Option) (*Problem, error) {
	return NewBuilder(inst, caps, opts...).Build(ctx)
}
