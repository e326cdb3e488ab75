package metrics

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/eosched/core/factory"
	coremetrics "github.com/kilianp07/eosched/core/metrics"
)

// InfluxConfig is the "conf" block of an influx sink.
type InfluxConfig struct {
	URL    string `json:"url" validate:"required,url"`
	Token  string `json:"token"`
	Org    string `json:"org" validate:"required"`
	Bucket string `json:"bucket" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func newInflux(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c InfluxConfig
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("influx sink: %w", err)
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})
	_ = coremetrics.RegisterMetricsSink("influx", newInflux)
}
