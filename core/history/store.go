// Package history persists one record per planning run and answers
// queries over past runs.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RunRecord summarizes one planning run.
type RunRecord struct {
	RunID       string         `json:"run_id"`
	Timestamp   time.Time      `json:"timestamp"`
	Instance    string         `json:"instance,omitempty"`
	Variant     string         `json:"variant"`
	Solver      string         `json:"solver"`
	Status      string         `json:"status"`
	Objective   float64        `json:"objective"`
	Bound       int            `json:"bound,omitempty"`
	Collections int            `json:"collections"`
	Processing  int            `json:"processing"`
	Downlinks   int            `json:"downlinks"`
	Nodes       int            `json:"nodes"`
	BuildMS     float64        `json:"build_ms"`
	SolveMS     float64        `json:"solve_ms"`
	Violations  map[string]int `json:"violations,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Query filters records. Zero fields match everything; Limit keeps the
// most recent records.
type Query struct {
	Start   time.Time
	End     time.Time
	Variant string
	Status  string
	Limit   int
}

// Match reports whether r passes the filter, ignoring Limit.
func (q Query) Match(r RunRecord) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.Variant != "" && r.Variant != q.Variant:
		return false
	case q.Status != "" && r.Status != q.Status:
		return false
	}
	return true
}

func (q Query) limit(res []RunRecord) []RunRecord {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// Config selects and tunes the store.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend" yaml:"backend"`
	Path    string `json:"path" yaml:"path"`
	// MaxSizeMB enables rotation of the jsonl backend.
	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" && c.Backend != "none" {
		c.Path = "eosched-runs.jsonl"
		if c.Backend == "sqlite" {
			c.Path = "eosched-runs.db"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
	case "none":
		return nil
	default:
		return fmt.Errorf("unknown history backend %q", c.Backend)
	}
	if c.Path == "" {
		return errors.New("history path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return errors.New("history rotation settings must not be negative")
	}
	return nil
}

// Open builds the configured store. The "none" backend discards records.
func Open(c Config) (Store, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case "sqlite":
		return NewSQLiteStore(c.Path)
	case "none":
		return NopStore{}, nil
	}
	if c.MaxSizeMB > 0 {
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}
	return NewJSONLStore(c.Path)
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }
