// Package export writes planning results as JSON or CSV.
package export

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/samber/lo"

	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/core/scheduler"
)

// Event kinds used in the CSV schedule.
const (
	KindCollect  = "collect"
	KindProcess  = "process"
	KindDownlink = "downlink"
)

// Row is one scheduled event in flat form. Station is -1 for events
// without a ground station.
type Row struct {
	Kind    string
	T       int
	Sat     int
	Area    int
	Station int
}

// Rows flattens a schedule ordered by instant, satellite then kind.
func Rows(s schedule.Schedule) []Row {
	rows := lo.Map(s.Collections, func(c schedule.Collect, _ int) Row {
		return Row{Kind: KindCollect, T: c.T, Sat: c.Sat, Area: c.Area, Station: -1}
	})
	rows = append(rows, lo.Map(s.Processing, func(p schedule.Process, _ int) Row {
		return Row{Kind: KindProcess, T: p.T, Sat: p.Sat, Area: p.Area, Station: -1}
	})...)
	rows = append(rows, lo.Map(s.Downlinks, func(d schedule.Downlink, _ int) Row {
		return Row{Kind: KindDownlink, T: d.T, Sat: d.Sat, Area: d.Area, Station: d.Station}
	})...)
	order := map[string]int{KindCollect: 0, KindProcess: 1, KindDownlink: 2}
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Sat, b.Sat), cmp.Compare(order[a.Kind], order[b.Kind]), cmp.Compare(a.Area, b.Area))
	})
	return rows
}

// WriteJSON writes the result to w. The trajectory is dropped unless
// withTrajectory is set.
func WriteJSON(w io.Writer, res scheduler.Result, withTrajectory bool) error {
	if !withTrajectory {
		res.Trajectory = nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteCSV writes the schedule events to w.
func WriteCSV(w io.Writer, s schedule.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"event", "t", "sat", "area", "station"}); err != nil {
		return err
	}
	for _, r := range Rows(s) {
		station := ""
		if r.Station >= 0 {
			station = strconv.Itoa(r.Station)
		}
		rec := []string{r.Kind, strconv.Itoa(r.T), strconv.Itoa(r.Sat), strconv.Itoa(r.Area), station}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrajectoryCSV writes one line per satellite and instant with the
// stored units and, when modelled, the state of charge.
func WriteTrajectoryCSV(w io.Writer, traces []schedule.SatelliteTrace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sat", "t", "memory", "max_memory", "charge"}); err != nil {
		return err
	}
	for _, tr := range traces {
		for t, m := range tr.Memory {
			charge := ""
			if t < len(tr.Charge) {
				charge = strconv.FormatFloat(tr.Charge[t], 'f', -1, 64)
			}
			rec := []string{
				strconv.Itoa(tr.Sat),
				strconv.Itoa(t),
				strconv.FormatFloat(m, 'f', -1, 64),
				strconv.FormatFloat(tr.MaxMemory, 'f', -1, 64),
				charge,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes the result into dir as "<run_id>.json" or
// "<run_id>.csv" (plus "<run_id>-trajectory.csv") and returns the paths.
func WriteFiles(dir, format string, res scheduler.Result, withTrajectory bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	write := func(name string, fn func(io.Writer) error) (string, error) {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		if err := fn(f); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, f.Close()
	}

	switch format {
	case "json", "":
		p, err := write(res.RunID+".json", func(w io.Writer) error { return WriteJSON(w, res, withTrajectory) })
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	case "csv":
		p, err := write(res.RunID+".csv", func(w io.Writer) error { return WriteCSV(w, res.Schedule) })
		if err != nil {
			return nil, err
		}
		paths := []string{p}
		if withTrajectory && len(res.Trajectory) > 0 {
			p, err = write(res.RunID+"-trajectory.csv", func(w io.Writer) error { return WriteTrajectoryCSV(w, res.Trajectory) })
			if err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
		return paths, nil
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}
