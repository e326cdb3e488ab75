// Package mqtt defines how planning results leave the process.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/core/scheduler"
)

// ErrPublish is returned when a schedule could not be delivered after all
// retries.
var ErrPublish = errors.New("schedule publish failed")

// ScheduleMessage is the payload published for every finished run.
type ScheduleMessage struct {
	RunID       string              `json:"run_id"`
	Variant     string              `json:"variant"`
	Solver      string              `json:"solver"`
	Status      string              `json:"status"`
	Objective   float64             `json:"objective"`
	Bound       int                 `json:"bound"`
	Collections []schedule.Collect  `json:"collections"`
	Processing  []schedule.Process  `json:"processing"`
	Downlinks   []schedule.Downlink `json:"downlinks"`
	Timestamp   int64               `json:"timestamp"`
}

// NewScheduleMessage builds the payload for a planning result.
func NewScheduleMessage(res scheduler.Result) ScheduleMessage {
	s := res.Schedule
	return ScheduleMessage{
		RunID:       res.RunID,
		Variant:     res.Variant,
		Solver:      res.Solver,
		Status:      s.Status.String(),
		Objective:   s.Objective,
		Bound:       res.Bound,
		Collections: s.Collections,
		Processing:  s.Processing,
		Downlinks:   s.Downlinks,
		Timestamp:   time.Now().UnixMilli(),
	}
}

// ScheduleTopic returns "<prefix>/<variant>/schedule".
func ScheduleTopic(prefix, variant string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "eosched"
	}
	return fmt.Sprintf("%s/%s/schedule", prefix, variant)
}

// SchedulePublisher delivers schedules to downstream consumers.
type SchedulePublisher interface {
	PublishSchedule(ctx context.Context, msg ScheduleMessage) error
}
