package schedule

import (
	"github.com/kilianp07/eosched/core/model"
)

// SatelliteTrace is the per-instant onboard state of one satellite under a
// schedule.
type SatelliteTrace struct {
	Sat int `json:"sat"`
	// Memory[t] is the number of stored units after instant t.
	Memory    []float64 `json:"memory"`
	MaxMemory float64   `json:"max_memory"`
	// Charge[t] is the state of charge after instant t. Nil unless the
	// battery is modelled.
	Charge    []float64 `json:"charge,omitempty"`
	MinCharge float64   `json:"min_charge,omitempty"`
}

// Trajectory replays the schedule and returns one trace per satellite.
func Trajectory(inst *model.Instance, caps model.Capabilities, s Schedule) []SatelliteTrace {
	d := inst.Dims
	p := inst.Params
	pt := p.ProcessingSlots(caps)

	// per satellite, per instant event counts
	newGrid := func() [][]float64 {
		g := make([][]float64, d.Satellites)
		for j := range g {
			g[j] = make([]float64, d.Horizon)
		}
		return g
	}
	xs, ys, zs := newGrid(), newGrid(), newGrid()
	for _, c := range s.Collections {
		if d.ValidSat(c.Sat) && d.ValidTime(c.T) {
			xs[c.Sat][c.T]++
		}
	}
	for _, dl := range s.Downlinks {
		if d.ValidSat(dl.Sat) && d.ValidTime(dl.T) {
			ys[dl.Sat][dl.T]++
		}
	}
	for _, z := range s.Processing {
		if d.ValidSat(z.Sat) && d.ValidTime(z.T) {
			zs[z.Sat][z.T]++
		}
	}

	out := make([]SatelliteTrace, d.Satellites)
	for j := 0; j < d.Satellites; j++ {
		tr := SatelliteTrace{Sat: j, Memory: make([]float64, d.Horizon)}
		var mem, cx, cy, cz float64
		if caps.Battery {
			tr.Charge = make([]float64, d.Horizon)
		}
		for t := 0; t < d.Horizon; t++ {
			mem += xs[j][t] - ys[j][t]
			if caps.Processing && t-pt >= 0 {
				mem -= zs[j][t-pt]
			}
			tr.Memory[t] = mem
			if t == 0 || mem > tr.MaxMemory {
				tr.MaxMemory = mem
			}

			cx += xs[j][t]
			cy += ys[j][t]
			cz += zs[j][t]
			if caps.Battery {
				soc := p.Capacity[j] - (p.CollectDrain*cx + p.DownlinkDrain*cy + float64(pt)*p.ProcessDrain*cz + p.IdleDrain*float64(t+1)) +
					p.ChargeRate*float64(inst.Eclipse.SunlitThrough(t, j))
				tr.Charge[t] = soc
				if t == 0 || soc < tr.MinCharge {
					tr.MinCharge = soc
				}
			}
		}
		out[j] = tr
	}
	return out
}
