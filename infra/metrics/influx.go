package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/eosched/core/metrics"
	"github.com/kilianp07/eosched/infra/logger"
)

// InfluxSink writes planning records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes a schedule_solve point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	p := write.NewPointWithMeasurement("schedule_solve").
		AddTag("variant", ev.Variant).
		AddTag("solver", ev.Solver).
		AddTag("status", ev.Status).
		AddTag("run_id", ev.RunID).
		AddField("objective", round3(ev.Objective)).
		AddField("collections", ev.Collections).
		AddField("nodes", ev.Nodes).
		AddField("build_ms", round3(ev.BuildTime.Seconds()*1000)).
		AddField("solve_ms", round3(ev.SolveTime.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordModelSize writes a model_size point.
func (s *InfluxSink) RecordModelSize(ev coremetrics.ModelSizeEvent) error {
	p := write.NewPointWithMeasurement("model_size").
		AddTag("variant", ev.Variant).
		AddField("variables", ev.Variables).
		AddField("constraints", ev.Constraints).
		AddField("nonzeros", ev.NonZeros).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordViolations writes one schedule_violation point per rule.
func (s *InfluxSink) RecordViolations(ev coremetrics.VerificationEvent) error {
	for rule, n := range ev.Rules {
		p := write.NewPointWithMeasurement("schedule_violation").
			AddTag("variant", ev.Variant).
			AddTag("rule", rule).
			AddTag("run_id", ev.RunID).
			AddField("count", n).
			SetTime(ev.Time)
		if err := s.write(p); err != nil {
			return err
		}
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
