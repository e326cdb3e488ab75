package app

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremon "github.com/kilianp07/eosched/core/monitoring"
	"github.com/kilianp07/eosched/infra/logger"
	"github.com/kilianp07/eosched/infra/metrics"
)

// ErrNoInstance is returned when the service has no instance file to plan.
var ErrNoInstance = errors.New("service.instance is required")

// Service re-plans the configured instance on a fixed interval.
type Service struct {
	rt       *Runtime
	instance string
	interval time.Duration
	gatherer prometheus.Gatherer
	log      logger.Logger
}

// NewService creates a Service on top of rt.
func NewService(rt *Runtime) (*Service, error) {
	sc := rt.Config.Service
	if sc.Instance == "" {
		return nil, ErrNoInstance
	}
	return &Service{
		rt:       rt,
		instance: sc.Instance,
		interval: time.Duration(sc.IntervalSeconds) * time.Second,
		log:      logger.New("service"),
	}, nil
}

// Run plans immediately, then once per interval, until ctx is canceled.
// Failed runs are logged and do not stop the service.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.rt.Config.Metrics.Listen; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.gatherer); err != nil {
				s.log.Errorf("prom server: %v", err)
				coremon.CaptureException(err, map[string]string{"module": "prom-server"})
			}
		}()
	}
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	res, err := s.rt.PlanFile(ctx, s.instance)
	switch {
	case err == nil:
		s.log.Infof("planned %s: %s objective=%g", res.RunID, res.Schedule.Status, res.Schedule.Objective)
	case ctx.Err() != nil:
	default:
		s.log.Errorf("planning %s: %v", s.instance, err)
	}
}
