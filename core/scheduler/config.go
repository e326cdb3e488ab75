package scheduler

import (
	"fmt"
	"time"

	"github.com/kilianp07/eosched/core/model"
	"github.com/kilianp07/eosched/core/schedule"
)

// Config defines planning parameters loaded from configuration.
type Config struct {
	Variant   string `json:"variant" yaml:"variant"`
	Objective string `json:"objective" yaml:"objective"`
	// TimeoutSeconds bounds each solve. Zero disables the limit.
	TimeoutSeconds float64 `json:"timeout_seconds" yaml:"timeout_seconds"`
	Tolerance      float64 `json:"tolerance" yaml:"tolerance"`
	Workers        int     `json:"workers" yaml:"workers"`
	SkipVerify     bool    `json:"skip_verify" yaml:"skip_verify"`
	// Strict fails a run whose schedule breaks an invariant.
	Strict bool `json:"strict" yaml:"strict"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Variant == "" {
		c.Variant = model.VariantBase
	}
	if c.Objective == "" {
		c.Objective = string(schedule.ObjectiveCount)
	}
	if c.Tolerance == 0 {
		c.Tolerance = schedule.DefaultTolerance
	}
}

// Validate checks names and ranges.
func (c Config) Validate() error {
	if _, err := model.ParseVariant(c.Variant); err != nil {
		return err
	}
	if _, err := schedule.ParseObjective(c.Objective); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.Tolerance < 0 || c.Tolerance >= 0.5 {
		return fmt.Errorf("tolerance %v outside [0,0.5)", c.Tolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// Timeout returns the solve time limit, zero when unlimited.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}
