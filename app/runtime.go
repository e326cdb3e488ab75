// Package app assembles the planning components from configuration and runs
// them once or as a periodic service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/eosched/config"
	"github.com/kilianp07/eosched/core/history"
	coremetrics "github.com/kilianp07/eosched/core/metrics"
	"github.com/kilianp07/eosched/core/model"
	coremon "github.com/kilianp07/eosched/core/monitoring"
	coremqtt "github.com/kilianp07/eosched/core/mqtt"
	"github.com/kilianp07/eosched/core/scheduler"
	coresolver "github.com/kilianp07/eosched/core/solver"
	"github.com/kilianp07/eosched/infra/logger"
	"github.com/kilianp07/eosched/infra/metrics"
	"github.com/kilianp07/eosched/infra/monitoring"
	"github.com/kilianp07/eosched/infra/mqtt"
	_ "github.com/kilianp07/eosched/infra/solver"
	"github.com/kilianp07/eosched/infra/tracing"
	"github.com/kilianp07/eosched/internal/eventbus"
	"github.com/kilianp07/eosched/pkg/export"
)

// Runtime holds the components shared by the CLI commands and the service.
type Runtime struct {
	Config    *config.Config
	Scheduler *scheduler.Scheduler
	Bus       *eventbus.Bus
	Sink      coremetrics.MetricsSink
	History   history.Store
	// Publisher is nil when MQTT publishing is disabled.
	Publisher coremqtt.SchedulePublisher

	log       logger.Logger
	collector <-chan struct{}
	cancel    context.CancelFunc
	closers   []func(context.Context) error
}

// NewRuntime builds every component described by cfg. Close releases them.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := logger.New("runtime")
	rt := &Runtime{Config: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close(context.Background())
		}
	}()

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	shutdown, err := tracing.Init(ctx, cfg.Tracing, logger.New("tracing"))
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	rt.closers = append(rt.closers, func(ctx context.Context) error {
		tracing.Shutdown(ctx, shutdown, log)
		return nil
	})

	slv, err := coresolver.NewSolver(cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	rt.Sink = sink
	if c, ok := sink.(interface{ Close() }); ok {
		rt.closers = append(rt.closers, func(context.Context) error { c.Close(); return nil })
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	rt.History = store
	rt.closers = append(rt.closers, func(context.Context) error { return store.Close() })

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		rt.Publisher = pub
		rt.closers = append(rt.closers, func(context.Context) error { pub.Disconnect(); return nil })
	}

	rt.Bus = eventbus.New()
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt.cancel = cancel
	rt.collector = metrics.StartEventCollector(cctx, rt.Bus, sink)

	rt.Scheduler = &scheduler.Scheduler{
		Config:  cfg.Scheduler,
		Solver:  slv,
		Logger:  logger.New("scheduler"),
		Bus:     rt.Bus,
		History: store,
	}
	ok = true
	return rt, nil
}

// PlanFile loads the instance at path, plans it and delivers the result to
// the configured outputs. A delivery failure is returned together with the
// result.
func (r *Runtime) PlanFile(ctx context.Context, path string) (scheduler.Result, error) {
	inst, err := model.LoadInstance(path)
	if err != nil {
		return scheduler.Result{}, fmt.Errorf("load instance %s: %w", path, err)
	}
	res, err := r.Scheduler.Plan(ctx, inst)
	if err != nil {
		return res, err
	}
	return res, r.Deliver(ctx, res)
}

// Deliver writes output files and publishes the schedule.
func (r *Runtime) Deliver(ctx context.Context, res scheduler.Result) error {
	var errs []error
	if out := r.Config.Output; out.Dir != "" {
		paths, err := export.WriteFiles(out.Dir, out.Format, res, out.Trajectory)
		if err != nil {
			errs = append(errs, fmt.Errorf("write output: %w", err))
		}
		for _, p := range paths {
			r.log.Infof("wrote %s", p)
		}
	}
	if r.Publisher != nil {
		if err := r.Publisher.PublishSchedule(ctx, coremqtt.NewScheduleMessage(res)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the metrics collector and releases every component.
func (r *Runtime) Close(ctx context.Context) error {
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.cancel != nil {
		r.cancel()
		<-r.collector
	}
	var errs []error
	for n := len(r.closers) - 1; n >= 0; n-- {
		if err := r.closers[n](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
