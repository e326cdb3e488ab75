package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `scheduler:
  variant: battery
  objective: weighted
  timeout_seconds: 30
  strict: true
solver:
  type: cbc
  conf:
    path: /usr/bin/cbc
    extra_args: ["threads", "4"]
metrics:
  listen: ":9100"
  sinks:
    - type: "nop"
history:
  backend: sqlite
  path: runs.db
logging:
  level: debug
tracing:
  enabled: true
  exporter: otlp
  endpoint: collector:4317
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "planner"
  topic_prefix: "fleet"
  qos: 1
output:
  dir: out
  format: csv
service:
  instance: inst.yaml
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"variant", cfg.Scheduler.Variant, "battery"},
		{"objective", cfg.Scheduler.Objective, "weighted"},
		{"timeout", cfg.Scheduler.TimeoutSeconds, 30.0},
		{"strict", cfg.Scheduler.Strict, true},
		{"tolerance default", cfg.Scheduler.Tolerance, 1e-6},
		{"solver", cfg.Solver.Type, "cbc"},
		{"solver path", cfg.Solver.Conf["path"], "/usr/bin/cbc"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics listen", cfg.Metrics.Listen, ":9100"},
		{"history", cfg.History.Backend, "sqlite"},
		{"logging", cfg.Logging.Level, "debug"},
		{"tracing", cfg.Tracing.Exporter, "otlp"},
		{"tracing service", cfg.Tracing.ServiceName, "eosched"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "planner"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "fleet"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"retries default", cfg.MQTT.MaxRetries, 3},
		{"output", cfg.Output.Format, "csv"},
		{"instance", cfg.Service.Instance, "inst.yaml"},
		{"interval default", cfg.Service.IntervalSeconds, 300},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"scheduler":{"variant":"base"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_SCHEDULER__VARIANT", "processing")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.Variant != "processing" {
		t.Fatalf("env override ignored: %s", cfg.Scheduler.Variant)
	}
	if cfg.History.Backend != "jsonl" || cfg.Output.Format != "json" {
		t.Fatalf("defaults not applied: %+v %+v", cfg.History, cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"config.toml":  `x = 1`,
		"variant.yaml": "scheduler:\n  variant: orbital\n",
		"history.yaml": "history:\n  backend: redis\n",
		"output.yaml":  "output:\n  format: xml\n",
		"mqtt.yaml":    "mqtt:\n  enabled: true\n",
		"tracing.yaml": "tracing:\n  enabled: true\n  exporter: zipkin\n",
		"sentry.yaml":  "sentry:\n  sample_rate: 2\n",
	}
	for name, data := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Scheduler.Variant != "base" || cfg.MQTT.Enabled || cfg.Sentry.Environment != "production" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
