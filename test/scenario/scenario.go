// Package scenario builds the small, hand-checked instances used across the
// test suites.
//
// Reference is the nine-instant, two-satellite constellation whose optimum
// is six collected areas for both the base and the processing variant, and
// 3.25 under the weighted objective.
// Areas 6, 7 and 8 have no opportunity.
package scenario

import (
	"github.com/kilianp07/eosched/core/model"
)

// Battery holds the energy parameters applied uniformly to every satellite.
type Battery struct {
	Capacity, MinCharge, MaxCharge float64
	ChargeRate, IdleDrain          float64
	CollectDrain, DownlinkDrain    float64
	ProcessDrain                   float64
}

// ReferenceBattery is the energy profile of the reference run with the
// given capacity and ceiling.
func ReferenceBattery(capacity, maxCharge float64) Battery {
	return Battery{
		Capacity: capacity, MinCharge: 3, MaxCharge: maxCharge,
		ChargeRate: 0.4, IdleDrain: 0.3,
		CollectDrain: 0.25, DownlinkDrain: 0.25, ProcessDrain: 0.4,
	}
}

// ReferenceCollections lists (t, sat, area) opportunities with their
// quality weights.
var ReferenceCollections = []model.Collection{
	{T: 0, Sat: 0, Area: 0, Value: 0.25}, {T: 0, Sat: 0, Area: 4, Value: 0.75},
	{T: 1, Sat: 1, Area: 1, Value: -1},
	{T: 2, Sat: 0, Area: 2, Value: 1.5}, {T: 2, Sat: 1, Area: 0, Value: 0},
	{T: 3, Sat: 0, Area: 5, Value: 0.5},
	{T: 5, Sat: 0, Area: 1, Value: -0.25}, {T: 5, Sat: 0, Area: 3, Value: -0.5},
	{T: 6, Sat: 1, Area: 0, Value: 0.5}, {T: 6, Sat: 1, Area: 2, Value: -0.5},
}

// ReferenceContacts lists (t, sat, station) opportunities.
var ReferenceContacts = []model.Contact{
	{T: 4, Sat: 0, Station: 0, Value: 1}, {T: 4, Sat: 1, Station: 0, Value: 1},
	{T: 7, Sat: 1, Station: 0, Value: 1},
	{T: 8, Sat: 0, Station: 0, Value: 1},
}

// ReferenceDims are the extents of the reference scenario.
var ReferenceDims = model.Dims{Horizon: 9, Satellites: 2, Areas: 9, Stations: 1}

// Reference returns the reference instance with processing time 3. When b
// is non-nil the battery parameters are set and both satellites are in
// eclipse from t=4 on.
func Reference(b *Battery) *model.Instance {
	d := ReferenceDims
	idx, err := model.NewOpportunityIndex(d, ReferenceCollections, ReferenceContacts)
	if err != nil {
		panic(err)
	}
	p := model.Params{
		Memory:         []float64{3, 3},
		Uplink:         []float64{2, 2},
		Downlink:       []float64{2},
		ProcessingTime: 3,
	}
	var ecl *model.Eclipse
	if b != nil {
		p = withBattery(p, d.Satellites, *b)
		ecl, err = model.EclipseFromIntervals(d, map[int][]model.Interval{
			0: {{Start: 4, End: 9}},
			1: {{Start: 4, End: 9}},
		})
		if err != nil {
			panic(err)
		}
	}
	in, err := model.NewInstance(idx, ecl, p)
	if err != nil {
		panic(err)
	}
	return in
}

// ProcessingOnly is a single satellite without ground stations that
// collects three areas at t=0,1,2. Every unit must be processed and jobs
// take three instants, so at most two units fit the horizon.
func ProcessingOnly() *model.Instance {
	d := model.Dims{Horizon: 9, Satellites: 1, Areas: 3}
	idx, err := model.NewOpportunityIndex(d, []model.Collection{
		{T: 0, Sat: 0, Area: 0}, {T: 1, Sat: 0, Area: 1}, {T: 2, Sat: 0, Area: 2},
	}, nil)
	if err != nil {
		panic(err)
	}
	in, err := model.NewInstance(idx, nil, model.Params{
		Memory: []float64{3}, Uplink: []float64{0}, Downlink: []float64{}, ProcessingTime: 3,
	})
	if err != nil {
		panic(err)
	}
	return in
}

// PermanentEclipse is a single satellite that never sees the sun and has no
// charging. It collects one area at t=0 and can only process it. With
// capacity 5, floor 3 and idle drain 0.3 the floor breaks at t=6.
func PermanentEclipse(horizon int) *model.Instance {
	d := model.Dims{Horizon: horizon, Satellites: 1, Areas: 1}
	idx, err := model.NewOpportunityIndex(d, []model.Collection{{T: 0, Sat: 0, Area: 0}}, nil)
	if err != nil {
		panic(err)
	}
	ecl, err := model.EclipseFromIntervals(d, map[int][]model.Interval{0: {{Start: 0, End: horizon}}})
	if err != nil {
		panic(err)
	}
	p := withBattery(model.Params{
		Memory: []float64{1}, Uplink: []float64{0}, Downlink: []float64{}, ProcessingTime: 1,
	}, 1, Battery{
		Capacity: 5, MinCharge: 3, MaxCharge: 5,
		IdleDrain: 0.3, CollectDrain: 0.05, ProcessDrain: 0.05,
	})
	in, err := model.NewInstance(idx, ecl, p)
	if err != nil {
		panic(err)
	}
	return in
}

func withBattery(p model.Params, sats int, b Battery) model.Params {
	fill := func(v float64) []float64 {
		out := make([]float64, sats)
		for n := range out {
			out[n] = v
		}
		return out
	}
	p.Capacity = fill(b.Capacity)
	p.MinCharge = fill(b.MinCharge)
	p.MaxCharge = fill(b.MaxCharge)
	p.ChargeRate = b.ChargeRate
	p.IdleDrain = b.IdleDrain
	p.CollectDrain = b.CollectDrain
	p.DownlinkDrain = b.DownlinkDrain
	p.ProcessDrain = b.ProcessDrain
	return p
}
