package schedule

import (
	"fmt"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// disposition: a collected unit is either downloaded or processed exactly
// once after its collection instant. One row per collection opportunity.
func disposition(f *Fabric, _ *model.Instance) []row {
	d := f.Dims()
	rows := make([]row, 0, len(f.X))
	for _, x := range f.X {
		var e milp.Expr
		e.Add(x.ID, 1)
		for t1 := x.T + 1; t1 < d.Horizon; t1++ {
			for _, y := range f.YAt(t1, x.Sat) {
				if y.Area == x.Area {
					e.Add(y.ID, -1)
				}
			}
			if z, ok := f.LookupZ(t1, x.Area, x.Sat); ok {
				e.Add(z, -1)
			}
		}
		rows = append(rows, row{name: fmt.Sprintf("disposition[%d,%d,%d]", x.T, x.Sat, x.Area), expr: e, sense: milp.EQ})
	}
	return rows
}

// sequentialProcessing: for window starts t in [1, p-pt], at most one job
// starts in [t, min(t+pt, p)).
func sequentialProcessing(f *Fabric, _ *model.Instance) []row {
	d := f.Dims()
	pt := f.ProcessingTime()
	var rows []row
	for j := 0; j < d.Satellites; j++ {
		for t := 1; t <= d.Horizon-pt; t++ {
			var e milp.Expr
			for t1 := t; t1 < t+pt && t1 < d.Horizon; t1++ {
				for _, z := range f.ZAt(t1, j) {
					e.Add(z.ID, 1)
				}
			}
			rows = append(rows, row{name: fmt.Sprintf("sequential_processing[%d,%d]", j, t), expr: e, sense: milp.LE, rhs: 1})
		}
	}
	return rows
}

// processingCausality: a job on (i,j) starting at t needs a collection of
// (i,j) strictly before t. Applies for t in [1, p-pt); the last admissible
// start p-pt has no row.
func processingCausality(f *Fabric, _ *model.Instance) []row {
	return causalityRows(f, "processing_causality", 1, f.Dims().Horizon-f.ProcessingTime(), func(t, j int) map[int][]milp.VarID {
		out := make(map[int][]milp.VarID)
		for _, z := range f.ZAt(t, j) {
			out[z.Area] = append(out[z.Area], z.ID)
		}
		return out
	})
}
