package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/eosched/core/events"
	coremetrics "github.com/kilianp07/eosched/core/metrics"
	"github.com/kilianp07/eosched/infra/logger"
	"github.com/kilianp07/eosched/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// planning events. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has stopped.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.SolveStarted:
		if r, ok := sink.(coremetrics.ModelSizeRecorder); ok {
			return r.RecordModelSize(coremetrics.ModelSizeEvent{
				Variant:     e.Variant,
				Variables:   e.Variables,
				Constraints: e.Constraints,
				Time:        stamp(e.Time),
			})
		}
	case events.SolveFinished:
		if err := sink.RecordSolve(coremetrics.SolveEvent{
			RunID:       e.RunID,
			Variant:     e.Variant,
			Solver:      e.Solver,
			Status:      e.Status.String(),
			Objective:   e.Objective,
			Collections: e.Collections,
			Nodes:       e.Nodes,
			BuildTime:   e.BuildTime,
			SolveTime:   e.SolveTime,
			Time:        stamp(e.Time),
		}); err != nil {
			return err
		}
		if r, ok := sink.(coremetrics.VerificationRecorder); ok && len(e.Violations) > 0 {
			return r.RecordViolations(coremetrics.VerificationEvent{
				RunID: e.RunID, Variant: e.Variant, Rules: e.Violations, Time: stamp(e.Time),
			})
		}
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
