package schedule

import (
	"fmt"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// batteryFloor keeps the state of charge above min charge at every instant.
// The state is the closed form
//
//	C - (e*X(t) + f*Y(t) + pt*g*Z(t) + d*(t+1)) + c*sunlit(t)
//
// with X, Y, Z cumulative over [0, t].
func batteryFloor(f *Fabric, inst *model.Instance) []row {
	d := f.Dims()
	p := inst.Params
	pt := float64(f.ProcessingTime())
	rows := make([]row, 0, d.Satellites*d.Horizon)
	for j := 0; j < d.Satellites; j++ {
		var acc milp.Expr
		for t := 0; t < d.Horizon; t++ {
			for _, x := range f.XAt(t, j) {
				acc.Add(x.ID, p.CollectDrain)
			}
			for _, y := range f.YAt(t, j) {
				acc.Add(y.ID, p.DownlinkDrain)
			}
			for _, z := range f.ZAt(t, j) {
				acc.Add(z.ID, pt*p.ProcessDrain)
			}
			rhs := p.Capacity[j] - p.IdleDrain*float64(t+1) + p.ChargeRate*float64(inst.Eclipse.SunlitThrough(t, j)) - p.MinCharge[j]
			rows = append(rows, row{
				name:  fmt.Sprintf("battery_floor[%d,%d]", j, t),
				expr:  clone(acc),
				sense: milp.LE,
				rhs:   rhs,
				keep:  true,
			})
		}
	}
	return rows
}

// batteryCeiling bounds capacity plus accrued charge by max charge. It has
// no decision variables; a violation makes the model infeasible.
func batteryCeiling(f *Fabric, inst *model.Instance) []row {
	d := f.Dims()
	p := inst.Params
	rows := make([]row, 0, d.Satellites*d.Horizon)
	for j := 0; j < d.Satellites; j++ {
		for t := 0; t < d.Horizon; t++ {
			var e milp.Expr
			e.AddConst(p.Capacity[j] + p.ChargeRate*float64(inst.Eclipse.SunlitThrough(t, j)))
			rows = append(rows, row{
				name:  fmt.Sprintf("battery_ceiling[%d,%d]", j, t),
				expr:  e,
				sense: milp.LE,
				rhs:   p.MaxCharge[j],
				keep:  true,
			})
		}
	}
	return rows
}
