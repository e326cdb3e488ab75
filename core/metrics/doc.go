// Package metrics defines the recorder contracts for planning metrics.
// Sinks such as the Prometheus and InfluxDB ones in infra/metrics record
// solve outcomes, model sizes and verifier findings; NewMetricsSink wraps
// several configured sinks in a MultiSink.
package metrics
