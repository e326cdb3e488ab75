package mqtt

import (
	"testing"

	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/core/scheduler"
	"github.com/kilianp07/eosched/core/solver"
)

func TestScheduleTopic(t *testing.T) {
	checks := []struct{ prefix, variant, want string }{
		{"fleet", "base", "fleet/base/schedule"},
		{"fleet/", "battery", "fleet/battery/schedule"},
		{"", "processing", "eosched/processing/schedule"},
	}
	for _, c := range checks {
		if got := ScheduleTopic(c.prefix, c.variant); got != c.want {
			t.Fatalf("topic(%q,%q)=%q want %q", c.prefix, c.variant, got, c.want)
		}
	}
}

func TestNewScheduleMessage(t *testing.T) {
	res := scheduler.Result{
		RunID: "r1", Variant: "base", Solver: "gonum", Bound: 7,
		Schedule: schedule.Schedule{
			Status:      solver.StatusOptimal,
			Objective:   1,
			Collections: []schedule.Collect{{T: 0, Sat: 0, Area: 4}},
			Downlinks:   []schedule.Downlink{{T: 4, Sat: 0, Area: 4, Station: 0}},
		},
	}
	msg := NewScheduleMessage(res)
	if msg.RunID != "r1" || msg.Status != "optimal" || msg.Bound != 7 {
		t.Fatalf("bad message %#v", msg)
	}
	if len(msg.Collections) != 1 || len(msg.Downlinks) != 1 || msg.Timestamp == 0 {
		t.Fatalf("events not copied %#v", msg)
	}
}
