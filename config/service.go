package config

import "fmt"

// OutputConfig controls where solved schedules are written.
type OutputConfig struct {
	// Dir receives one file per run; empty disables file output.
	Dir string `json:"dir"`
	// Format is "json" or "csv".
	Format     string `json:"format"`
	Trajectory bool   `json:"trajectory"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
}

// Validate checks the format.
func (c OutputConfig) Validate() error {
	if c.Format != "json" && c.Format != "csv" {
		return fmt.Errorf("unknown output format %s", c.Format)
	}
	return nil
}

// ServiceConfig drives the periodic planning service.
type ServiceConfig struct {
	// Instance is the file reloaded on every planning tick.
	Instance        string `json:"instance"`
	IntervalSeconds int    `json:"interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServiceConfig) SetDefaults() {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 300
	}
}
