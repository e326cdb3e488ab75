// Package scheduler runs one planning pass: build the model for the
// configured variant, solve it under a time limit, decode and re-check the
// schedule, then report the run on the bus, to the monitor and to history.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kilianp07/eosched/core/events"
	"github.com/kilianp07/eosched/core/history"
	"github.com/kilianp07/eosched/core/logger"
	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
	"github.com/kilianp07/eosched/core/monitoring"
	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/core/solver"
	"github.com/kilianp07/eosched/internal/eventbus"
)

var (
	// ErrNoSolver is returned when Plan is called without a backend.
	ErrNoSolver = errors.New("scheduler: no solver configured")
	// ErrVerification is returned in strict mode when the decoded schedule
	// breaks an invariant.
	ErrVerification = errors.New("scheduler: schedule failed verification")
)

const tracerName = "github.com/kilianp07/eosched/core/scheduler"

// Result is the outcome of one planning run.
type Result struct {
	RunID      string                    `json:"run_id"`
	Variant    string                    `json:"variant"`
	Solver     string                    `json:"solver"`
	Objective  schedule.Objective        `json:"objective_kind"`
	Schedule   schedule.Schedule         `json:"schedule"`
	Trajectory []schedule.SatelliteTrace `json:"trajectory,omitempty"`
	Violations []schedule.Violation      `json:"violations,omitempty"`
	ModelStats milp.Stats                `json:"model"`
	Groups     []schedule.GroupStat      `json:"groups,omitempty"`
	// Bound is the matching bound on collected areas; Gap is Bound minus
	// the objective for the count objective.
	Bound     int           `json:"bound"`
	Gap       float64       `json:"gap"`
	Nodes     int           `json:"nodes"`
	BuildTime time.Duration `json:"build_time"`
	SolveTime time.Duration `json:"solve_time"`
	Started   time.Time     `json:"started"`
}

// Scheduler plans schedules for instances.
type Scheduler struct {
	Config  Config
	Solver  solver.Solver
	Logger  logger.Logger
	Bus     eventbus.EventBus
	History history.Store
	// Monitor defaults to the globally installed monitor.
	Monitor monitoring.Monitor
}

// Plan runs build, solve, extract and verify for inst. Infeasible and
// unsolved models are reported through Result.Schedule.Status; errors are
// reserved for invalid input, backend failures, cancellation and, in strict
// mode, verification failures. A partially filled Result is returned with
// every error raised after the model was built.
func (s *Scheduler) Plan(ctx context.Context, inst *model.Instance) (res Result, err error) {
	log := logger.OrNop(s.Logger)
	cfg := s.Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("scheduler config: %w", err)
	}
	if s.Solver == nil {
		return Result{}, ErrNoSolver
	}
	caps, _ := model.ParseVariant(cfg.Variant)
	obj, _ := schedule.ParseObjective(cfg.Objective)

	res = Result{
		RunID:     uuid.NewString(),
		Variant:   caps.Variant(),
		Solver:    s.Solver.Name(),
		Objective: obj,
		Started:   time.Now(),
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "schedule.plan", trace.WithAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("variant", res.Variant),
		attribute.String("solver", res.Solver),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	defer s.finish(ctx, &res, &err)

	if err := inst.Check(caps); err != nil {
		return res, err
	}

	p, err := s.build(ctx, inst, caps, obj, log)
	if err != nil {
		return res, err
	}
	res.ModelStats = p.Model.Stats()
	res.Groups = p.Groups
	res.BuildTime = p.BuildTime
	s.publish(events.SolveStarted{
		RunID:       res.RunID,
		Variant:     res.Variant,
		Solver:      res.Solver,
		Variables:   res.ModelStats.Variables,
		Constraints: res.ModelStats.Constraints,
		BuildTime:   res.BuildTime,
		Time:        time.Now(),
	})

	sol, err := s.solve(ctx, p.Model, cfg.Timeout())
	res.Nodes = sol.Nodes
	res.SolveTime = sol.Runtime
	if err != nil {
		return res, err
	}

	_, xspan := otel.Tracer(tracerName).Start(ctx, "schedule.extract")
	sched, err := schedule.Extract(p, sol, cfg.Tolerance)
	xspan.End()
	if err != nil {
		return res, err
	}
	res.Schedule = sched
	if !sol.HasValues() {
		return res, nil
	}

	res.Trajectory = schedule.Trajectory(inst, caps, sched)
	if bound, berr := schedule.CollectionBound(inst); berr == nil {
		res.Bound = bound
		if obj == schedule.ObjectiveCount {
			res.Gap = float64(bound) - sched.Objective
		}
	} else {
		log.Warnf("collection bound: %v", berr)
	}
	if cfg.SkipVerify {
		return res, nil
	}
	res.Violations = schedule.Verify(inst, caps, sched)
	for _, v := range res.Violations {
		log.Warnf("run %s violation %s", res.RunID, v)
	}
	if len(res.Violations) > 0 && cfg.Strict {
		return res, fmt.Errorf("%w: %d violations, first %s", ErrVerification, len(res.Violations), res.Violations[0])
	}
	return res, nil
}

func (s *Scheduler) build(ctx context.Context, inst *model.Instance, caps model.Capabilities, obj schedule.Objective, log logger.Logger) (*schedule.Problem, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "schedule.build")
	defer span.End()
	p, err := schedule.Build(ctx, inst, caps,
		schedule.WithLogger(log),
		schedule.WithWorkers(s.Config.Workers),
		schedule.WithObjective(obj),
	)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	span.SetAttributes(
		attribute.Int("variables", p.Model.NumVars()),
		attribute.Int("constraints", len(p.Model.Constraints())),
	)
	return p, nil
}

func (s *Scheduler) solve(ctx context.Context, m *milp.Model, timeout time.Duration) (solver.Solution, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "schedule.solve")
	defer span.End()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	sol, err := s.Solver.Solve(ctx, m)
	if sol.Runtime == 0 {
		sol.Runtime = time.Since(start)
	}
	span.SetAttributes(attribute.String("status", sol.Status.String()), attribute.Int("nodes", sol.Nodes))
	if err != nil {
		return sol, fmt.Errorf("solve with %s: %w", s.Solver.Name(), err)
	}
	return sol, nil
}

// finish reports the run however it ended.
func (s *Scheduler) finish(ctx context.Context, res *Result, errp *error) {
	log := logger.OrNop(s.Logger)
	err := *errp
	sched := res.Schedule
	violations := make(map[string]int)
	for _, v := range res.Violations {
		violations[v.Rule]++
	}
	s.publish(events.SolveFinished{
		RunID:       res.RunID,
		Variant:     res.Variant,
		Solver:      res.Solver,
		Status:      sched.Status,
		Objective:   sched.Objective,
		Collections: len(sched.Collections),
		Processing:  len(sched.Processing),
		Downlinks:   len(sched.Downlinks),
		Nodes:       res.Nodes,
		Violations:  violations,
		BuildTime:   res.BuildTime,
		SolveTime:   res.SolveTime,
		Err:         err,
		Time:        time.Now(),
	})

	if err != nil && reportable(err) {
		s.monitor().CaptureException(err, map[string]string{
			"run_id":  res.RunID,
			"variant": res.Variant,
			"solver":  res.Solver,
		})
	}

	if s.History != nil {
		rec := res.Record(err)
		// history is written even when the run's context is gone
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if herr := s.History.Append(hctx, rec); herr != nil {
			log.Warnf("history append %s: %v", res.RunID, herr)
		}
		cancel()
	}

	if err != nil {
		log.Errorf("run %s variant=%s solver=%s failed: %v", res.RunID, res.Variant, res.Solver, err)
		return
	}
	log.Infof("run %s variant=%s solver=%s status=%s objective=%g events=%d build=%s solve=%s",
		res.RunID, res.Variant, res.Solver, sched.Status, sched.Objective, sched.Events(), res.BuildTime, res.SolveTime)
}

func (s *Scheduler) publish(ev eventbus.Event) {
	if s.Bus != nil {
		s.Bus.Publish(ev)
	}
}

func (s *Scheduler) monitor() monitoring.Monitor {
	if s.Monitor != nil {
		return s.Monitor
	}
	return monitoring.Current()
}

// reportable filters out errors caused by the caller rather than by a defect.
func reportable(err error) bool {
	return !errors.Is(err, model.ErrInvalidInput) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Record converts the result into a history record.
func (r Result) Record(err error) history.RunRecord {
	rec := history.RunRecord{
		RunID:       r.RunID,
		Timestamp:   r.Started,
		Variant:     r.Variant,
		Solver:      r.Solver,
		Status:      r.Schedule.Status.String(),
		Objective:   r.Schedule.Objective,
		Bound:       r.Bound,
		Collections: len(r.Schedule.Collections),
		Processing:  len(r.Schedule.Processing),
		Downlinks:   len(r.Schedule.Downlinks),
		Nodes:       r.Nodes,
		BuildMS:     float64(r.BuildTime) / float64(time.Millisecond),
		SolveMS:     float64(r.SolveTime) / float64(time.Millisecond),
	}
	if len(r.Violations) > 0 {
		rec.Violations = make(map[string]int)
		for _, v := range r.Violations {
			rec.Violations[v.Rule]++
		}
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
