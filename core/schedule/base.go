package schedule

import (
	"fmt"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// collectOncePerInstant: a satellite images at most one area per instant.
func collectOncePerInstant(f *Fabric, _ *model.Instance) []row {
	d := f.Dims()
	var rows []row
	for t := 0; t < d.Horizon; t++ {
		for j := 0; j < d.Satellites; j++ {
			var e milp.Expr
			for _, x := range f.XAt(t, j) {
				e.Add(x.ID, 1)
			}
			rows = append(rows, row{name: fmt.Sprintf("collect_once_per_instant[%d,%d]", t, j), expr: e, sense: milp.LE, rhs: 1})
		}
	}
	return rows
}

// collectAreaOnce: an area is imaged at most once over the horizon and fleet.
func collectAreaOnce(f *Fabric, _ *model.Instance) []row {
	d := f.Dims()
	exprs := make([]milp.Expr, d.Areas)
	for _, x := range f.X {
		exprs[x.Area].Add(x.ID, 1)
	}
	rows := make([]row, d.Areas)
	for i := range exprs {
		rows[i] = row{name: fmt.Sprintf("collect_area_once[%d]", i), expr: exprs[i], sense: milp.LE, rhs: 1}
	}
	return rows
}

// baseMemory: collected minus downloaded units never exceed memory.
func baseMemory(f *Fabric, inst *model.Instance) []row {
	return memoryRows(f, inst, false)
}

// processingMemory also releases a unit once its processing job has
// completed, pt instants after the start.
func processingMemory(f *Fabric, inst *model.Instance) []row {
	return memoryRows(f, inst, true)
}

func memoryRows(f *Fabric, inst *model.Instance, processing bool) []row {
	d := f.Dims()
	pt := f.ProcessingTime()
	var rows []row
	for j := 0; j < d.Satellites; j++ {
		var acc milp.Expr
		for t := 0; t < d.Horizon; t++ {
			for _, x := range f.XAt(t, j) {
				acc.Add(x.ID, 1)
			}
			for _, y := range f.YAt(t, j) {
				acc.Add(y.ID, -1)
			}
			if processing && t-pt >= 0 {
				for _, z := range f.ZAt(t-pt, j) {
					acc.Add(z.ID, -1)
				}
			}
			rows = append(rows, row{
				name:  fmt.Sprintf("memory[%d,%d]", j, t),
				expr:  clone(acc),
				sense: milp.LE,
				rhs:   inst.Params.Memory[j],
			})
		}
	}
	return rows
}

// downlinkCapacity: a station receives at most down[k] units per instant.
func downlinkCapacity(f *Fabric, inst *model.Instance) []row {
	d := f.Dims()
	var rows []row
	for t := 0; t < d.Horizon; t++ {
		exprs := make([]milp.Expr, d.Stations)
		for j := 0; j < d.Satellites; j++ {
			for _, y := range f.YAt(t, j) {
				exprs[y.Station].Add(y.ID, 1)
			}
		}
		for k := range exprs {
			rows = append(rows, row{name: fmt.Sprintf("downlink_capacity[%d,%d]", t, k), expr: exprs[k], sense: milp.LE, rhs: inst.Params.Downlink[k]})
		}
	}
	return rows
}

// uplinkCapacity: a satellite sends at most up[j] units per instant.
func uplinkCapacity(f *Fabric, inst *model.Instance) []row {
	d := f.Dims()
	var rows []row
	for t := 0; t < d.Horizon; t++ {
		for j := 0; j < d.Satellites; j++ {
			var e milp.Expr
			for _, y := range f.YAt(t, j) {
				e.Add(y.ID, 1)
			}
			rows = append(rows, row{name: fmt.Sprintf("uplink_capacity[%d,%d]", t, j), expr: e, sense: milp.LE, rhs: inst.Params.Uplink[j]})
		}
	}
	return rows
}

// transport: every unit a satellite collects of an area is downloaded.
func transport(f *Fabric, _ *model.Instance) []row {
	d := f.Dims()
	exprs := make([]milp.Expr, d.Areas*d.Satellites)
	for _, x := range f.X {
		exprs[x.Area*d.Satellites+x.Sat].Add(x.ID, 1)
	}
	for _, y := range f.Y {
		exprs[y.Area*d.Satellites+y.Sat].Add(y.ID, -1)
	}
	rows := make([]row, 0, len(exprs))
	for i := 0; i < d.Areas; i++ {
		for j := 0; j < d.Satellites; j++ {
			rows = append(rows, row{name: fmt.Sprintf("transport[%d,%d]", i, j), expr: exprs[i*d.Satellites+j], sense: milp.EQ})
		}
	}
	return rows
}

// downlinkCausality: downloads of (i,j) at t never exceed collections of
// (i,j) strictly before t. Applies for t in [1, p).
func downlinkCausality(f *Fabric, _ *model.Instance) []row {
	return causalityRows(f, "downlink_causality", 1, f.Dims().Horizon, func(t, j int) map[int][]milp.VarID {
		out := make(map[int][]milp.VarID)
		for _, y := range f.YAt(t, j) {
			out[y.Area] = append(out[y.Area], y.ID)
		}
		return out
	})
}

// causalityRows emits, for t in [from, to), a row per (i,j) bounding the
// variables returned by lhs(t, j) by the collections of (i,j) before t. Rows
// without left-hand side variables are trivially satisfied and omitted.
func causalityRows(f *Fabric, name string, from, to int, lhs func(t, j int) map[int][]milp.VarID) []row {
	d := f.Dims()
	var rows []row
	for j := 0; j < d.Satellites; j++ {
		before := make([][]milp.VarID, d.Areas)
		for t := 0; t < to && t < d.Horizon; t++ {
			if t >= from {
				bound := lhs(t, j)
				for i := 0; i < d.Areas; i++ {
					ids := bound[i]
					if len(ids) == 0 {
						continue
					}
					var e milp.Expr
					for _, id := range ids {
						e.Add(id, 1)
					}
					for _, id := range before[i] {
						e.Add(id, -1)
					}
					rows = append(rows, row{name: fmt.Sprintf("%s[%d,%d,%d]", name, t, i, j), expr: e, sense: milp.LE})
				}
			}
			for _, x := range f.XAt(t, j) {
				before[x.Area] = append(before[x.Area], x.ID)
			}
		}
	}
	return rows
}

func clone(e milp.Expr) milp.Expr {
	return milp.Expr{Terms: append([]milp.Term(nil), e.Terms...), Const: e.Const}
}
