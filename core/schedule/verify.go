package schedule

import (
	"fmt"
	"sort"

	"github.com/kilianp07/eosched/core/model"
)

// Rule names reported by Verify.
const (
	RuleOpportunity          = "opportunity"
	RuleSatelliteExclusivity = "satellite_exclusivity"
	RuleAreaExclusivity      = "area_exclusivity"
	RuleDownlinkCapacity     = "downlink_capacity"
	RuleUplinkCapacity       = "uplink_capacity"
	RuleMemory               = "memory"
	RuleTransport            = "transport"
	RuleCausality            = "causality"
	RuleSequential           = "sequential_processing"
	RuleBatteryFloor         = "battery_floor"
	RuleBatteryCeiling       = "battery_ceiling"
)

const verifyTol = 1e-6

// Violation is a broken invariant found on a decoded schedule.
type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

func (v Violation) String() string { return v.Rule + ": " + v.Detail }

// Verify re-checks a schedule against the instance without looking at the
// model that produced it.
func Verify(inst *model.Instance, caps model.Capabilities, s Schedule) []Violation {
	v := &verifier{inst: inst, caps: caps, s: s, pt: inst.Params.ProcessingSlots(caps)}
	v.opportunities()
	v.exclusivity()
	v.capacities()
	v.transport()
	v.causality()
	v.sequential()
	v.memoryAndBattery()
	return v.out
}

type verifier struct {
	inst *model.Instance
	caps model.Capabilities
	s    Schedule
	pt   int
	out  []Violation
}

func (v *verifier) add(rule, format string, args ...any) {
	v.out = append(v.out, Violation{Rule: rule, Detail: fmt.Sprintf(format, args...)})
}

func (v *verifier) opportunities() {
	idx := v.inst.Index
	d := v.inst.Dims
	for _, c := range v.s.Collections {
		if !idx.HasCollection(c.T, c.Sat, c.Area) {
			v.add(RuleOpportunity, "collection of area %d by sat %d at t=%d has no opportunity", c.Area, c.Sat, c.T)
		}
	}
	for _, dl := range v.s.Downlinks {
		if !idx.HasContact(dl.T, dl.Sat, dl.Station) {
			v.add(RuleOpportunity, "downlink from sat %d to station %d at t=%d has no contact", dl.Sat, dl.Station, dl.T)
		}
		if dl.T == 0 {
			v.add(RuleOpportunity, "downlink from sat %d at t=0", dl.Sat)
		}
	}
	for _, z := range v.s.Processing {
		switch {
		case !v.caps.Processing:
			v.add(RuleOpportunity, "processing of area %d by sat %d at t=%d without processing capability", z.Area, z.Sat, z.T)
		case z.T < 1 || z.T > d.Horizon-v.pt:
			v.add(RuleOpportunity, "processing of area %d by sat %d starts at t=%d outside [1,%d]", z.Area, z.Sat, z.T, d.Horizon-v.pt)
		case idx.HasCollection(z.T, z.Sat, z.Area):
			v.add(RuleOpportunity, "processing of area %d by sat %d starts at its collection instant t=%d", z.Area, z.Sat, z.T)
		}
	}
}

func (v *verifier) exclusivity() {
	perSlot := map[[2]int]int{}
	perArea := map[int]int{}
	for _, c := range v.s.Collections {
		perSlot[[2]int{c.T, c.Sat}]++
		perArea[c.Area]++
	}
	for _, k := range sortedKeys2(perSlot) {
		if n := perSlot[k]; n > 1 {
			v.add(RuleSatelliteExclusivity, "sat %d collects %d areas at t=%d", k[1], n, k[0])
		}
	}
	areas := make([]int, 0, len(perArea))
	for i := range perArea {
		areas = append(areas, i)
	}
	sort.Ints(areas)
	for _, i := range areas {
		if perArea[i] > 1 {
			v.add(RuleAreaExclusivity, "area %d collected %d times", i, perArea[i])
		}
	}
}

func (v *verifier) capacities() {
	p := v.inst.Params
	down := map[[2]int]int{}
	up := map[[2]int]int{}
	for _, dl := range v.s.Downlinks {
		down[[2]int{dl.T, dl.Station}]++
		up[[2]int{dl.T, dl.Sat}]++
	}
	for _, k := range sortedKeys2(down) {
		if k[1] < len(p.Downlink) && float64(down[k]) > p.Downlink[k[1]]+verifyTol {
			v.add(RuleDownlinkCapacity, "station %d receives %d units at t=%d, capacity %g", k[1], down[k], k[0], p.Downlink[k[1]])
		}
	}
	for _, k := range sortedKeys2(up) {
		if k[1] < len(p.Uplink) && float64(up[k]) > p.Uplink[k[1]]+verifyTol {
			v.add(RuleUplinkCapacity, "sat %d sends %d units at t=%d, capacity %g", k[1], up[k], k[0], p.Uplink[k[1]])
		}
	}
}

func (v *verifier) transport() {
	type pair = [2]int // area, sat
	collected := map[pair][]int{}
	disposed := map[pair][]int{}
	for _, c := range v.s.Collections {
		collected[pair{c.Area, c.Sat}] = append(collected[pair{c.Area, c.Sat}], c.T)
	}
	for _, dl := range v.s.Downlinks {
		disposed[pair{dl.Area, dl.Sat}] = append(disposed[pair{dl.Area, dl.Sat}], dl.T)
	}
	for _, z := range v.s.Processing {
		disposed[pair{z.Area, z.Sat}] = append(disposed[pair{z.Area, z.Sat}], z.T)
	}
	keys := map[pair]bool{}
	for k := range collected {
		keys[k] = true
	}
	for k := range disposed {
		keys[k] = true
	}
	for _, k := range sortedKeys2(keys) {
		c, dsp := collected[k], disposed[k]
		if len(c) != len(dsp) {
			v.add(RuleTransport, "area %d on sat %d: %d collected, %d downloaded or processed", k[0], k[1], len(c), len(dsp))
			continue
		}
		if !v.caps.Processing {
			continue
		}
		for _, t := range c {
			later := 0
			for _, t1 := range dsp {
				if t1 > t {
					later++
				}
			}
			if later != 1 {
				v.add(RuleTransport, "area %d collected by sat %d at t=%d has %d later dispositions", k[0], k[1], t, later)
			}
		}
	}
}

func (v *verifier) causality() {
	first := map[[2]int]int{} // (area, sat) -> earliest collection
	for _, c := range v.s.Collections {
		k := [2]int{c.Area, c.Sat}
		if t, ok := first[k]; !ok || c.T < t {
			first[k] = c.T
		}
	}
	check := func(kind string, t, sat, area int) {
		ct, ok := first[[2]int{area, sat}]
		if !ok || ct >= t {
			v.add(RuleCausality, "%s of area %d by sat %d at t=%d precedes its collection", kind, area, sat, t)
		}
	}
	for _, dl := range v.s.Downlinks {
		check("downlink", dl.T, dl.Sat, dl.Area)
	}
	for _, z := range v.s.Processing {
		check("processing", z.T, z.Sat, z.Area)
	}
}

func (v *verifier) sequential() {
	if !v.caps.Processing {
		return
	}
	starts := map[int][]int{}
	for _, z := range v.s.Processing {
		starts[z.Sat] = append(starts[z.Sat], z.T)
	}
	sats := make([]int, 0, len(starts))
	for j := range starts {
		sats = append(sats, j)
	}
	sort.Ints(sats)
	for _, j := range sats {
		ts := starts[j]
		sort.Ints(ts)
		for n := 1; n < len(ts); n++ {
			if ts[n]-ts[n-1] < v.pt {
				v.add(RuleSequential, "sat %d starts jobs at t=%d and t=%d within a %d-wide window", j, ts[n-1], ts[n], v.pt)
			}
		}
	}
}

func (v *verifier) memoryAndBattery() {
	p := v.inst.Params
	for _, tr := range Trajectory(v.inst, v.caps, v.s) {
		j := tr.Sat
		for t, m := range tr.Memory {
			if m > p.Memory[j]+verifyTol {
				v.add(RuleMemory, "sat %d stores %g units at t=%d, capacity %g", j, m, t, p.Memory[j])
			}
			if m < -verifyTol {
				v.add(RuleMemory, "sat %d has negative occupancy %g at t=%d", j, m, t)
			}
		}
		if !v.caps.Battery {
			continue
		}
		for t, soc := range tr.Charge {
			if soc < p.MinCharge[j]-verifyTol {
				v.add(RuleBatteryFloor, "sat %d charge %.4g below floor %g at t=%d", j, soc, p.MinCharge[j], t)
			}
			ceil := p.Capacity[j] + p.ChargeRate*float64(v.inst.Eclipse.SunlitThrough(t, j))
			if ceil > p.MaxCharge[j]+verifyTol {
				v.add(RuleBatteryCeiling, "sat %d accrued charge %.4g above ceiling %g at t=%d", j, ceil, p.MaxCharge[j], t)
			}
		}
	}
}

func sortedKeys2[V any](m map[[2]int]V) [][2]int {
	keys := make([][2]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	return keys
}
