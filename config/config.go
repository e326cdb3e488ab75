package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/eosched/core/factory"
	"github.com/kilianp07/eosched/core/history"
	"github.com/kilianp07/eosched/core/metrics"
	"github.com/kilianp07/eosched/core/scheduler"
	"github.com/kilianp07/eosched/infra/logger"
	"github.com/kilianp07/eosched/infra/mqtt"
	"github.com/kilianp07/eosched/infra/tracing"
)

type Config struct {
	Scheduler scheduler.Config     `json:"scheduler"`
	Solver    factory.ModuleConfig `json:"solver"`
	Metrics   metrics.Config       `json:"metrics"`
	History   history.Config       `json:"history"`
	Logging   logger.Options       `json:"logging"`
	Tracing   tracing.Config       `json:"tracing"`
	Sentry    SentryConfig         `json:"sentry"`
	MQTT      mqtt.Config          `json:"mqtt"`
	Output    OutputConfig         `json:"output"`
	Service   ServiceConfig        `json:"service"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Scheduler.SetDefaults()
	c.History.SetDefaults()
	c.Tracing.SetDefaults()
	c.MQTT.SetDefaults()
	c.Output.SetDefaults()
	c.Service.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"scheduler", c.Scheduler.Validate},
		{"history", c.History.Validate},
		{"tracing", c.Tracing.Validate},
		{"mqtt", c.MQTT.Validate},
		{"output", c.Output.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ck := range checks {
		if err := ck.fn(); err != nil {
			return fmt.Errorf("%s: %w", ck.name, err)
		}
	}
	return nil
}

// Load reads a YAML or JSON file, applies K_SECTION__FIELD environment
// overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
