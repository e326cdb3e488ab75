package export

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/core/scheduler"
	"github.com/kilianp07/eosched/core/solver"
)

func sampleResult() scheduler.Result {
	return scheduler.Result{
		RunID:   "run-1",
		Variant: "processing",
		Solver:  "gonum",
		Schedule: schedule.Schedule{
			Status:      solver.StatusOptimal,
			Objective:   2,
			Collections: []schedule.Collect{{T: 0, Sat: 0, Area: 0}, {T: 1, Sat: 1, Area: 1}},
			Processing:  []schedule.Process{{T: 1, Sat: 0, Area: 0}},
			Downlinks:   []schedule.Downlink{{T: 4, Sat: 1, Area: 1, Station: 0}},
		},
		Trajectory: []schedule.SatelliteTrace{
			{Sat: 0, Memory: []float64{1, 1}, MaxMemory: 3, Charge: []float64{4.5, 4.1}, MinCharge: 3},
		},
	}
}

func TestRowsOrder(t *testing.T) {
	rows := Rows(sampleResult().Schedule)
	kinds := make([]string, len(rows))
	for n, r := range rows {
		kinds[n] = r.Kind
	}
	assert.Equal(t, []string{KindCollect, KindProcess, KindCollect, KindDownlink}, kinds)
	assert.Equal(t, -1, rows[0].Station)
	assert.Equal(t, 0, rows[3].Station)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult().Schedule))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "event,t,sat,area,station", lines[0])
	assert.Equal(t, "collect,0,0,0,", lines[1])
	assert.Equal(t, "downlink,4,1,1,0", lines[4])
}

func TestWriteTrajectoryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrajectoryCSV(&buf, sampleResult().Trajectory))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0,1,1,3,4.1", lines[2])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult(), false))
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out["run_id"])
	assert.NotContains(t, out, "trajectory")
	sched := out["schedule"].(map[string]any)
	assert.Equal(t, "optimal", sched["status"])
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, "csv", sampleResult(), true)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}

	paths, err = WriteFiles(dir, "json", sampleResult(), true)
	require.NoError(t, err)
	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "max_memory")

	_, err = WriteFiles(dir, "xml", sampleResult(), false)
	assert.Error(t, err)
}
