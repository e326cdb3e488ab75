package schedule

import (
	"fmt"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
)

// XVar is a collection decision x[t,i,j].
type XVar struct {
	T, Sat, Area int
	ID           milp.VarID
}

// YVar is a downlink decision y[t,i,j,k].
type YVar struct {
	T, Sat, Area, Station int
	ID                    milp.VarID
}

// ZVar is a processing start decision z[t,i,j].
type ZVar struct {
	T, Sat, Area int
	ID           milp.VarID
}

// Pruned counts, per family, the tuples of the full index product that were
// never allocated because they can only be zero.
type Pruned struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Fabric allocates decision variables over valid tuples only. A tuple that is
// not allocated is a structural zero and never appears in any sum.
type Fabric struct {
	dims model.Dims
	pt   int

	X []XVar
	Y []YVar
	Z []ZVar

	// per (t, j) slot, indices into X, Y, Z
	xAt, yAt, zAt [][]int

	xKey map[[3]int]milp.VarID
	yKey map[[4]int]milp.VarID
	zKey map[[3]int]milp.VarID
}

// NewFabric declares the variables of inst on m. Processing variables exist
// only when caps.Processing is set.
func NewFabric(m *milp.Model, inst *model.Instance, caps model.Capabilities) (*Fabric, error) {
	d := inst.Dims
	idx := inst.Index
	slots := d.Horizon * d.Satellites
	f := &Fabric{
		dims: d,
		pt:   inst.Params.ProcessingSlots(caps),
		xAt:  make([][]int, slots),
		yAt:  make([][]int, slots),
		zAt:  make([][]int, slots),
		xKey: make(map[[3]int]milp.VarID),
		yKey: make(map[[4]int]milp.VarID),
		zKey: make(map[[3]int]milp.VarID),
	}

	for _, c := range idx.Collections() {
		id, err := m.AddBinary(fmt.Sprintf("x_%d_%d_%d", c.T, c.Area, c.Sat))
		if err != nil {
			return nil, err
		}
		f.xAt[f.slot(c.T, c.Sat)] = append(f.xAt[f.slot(c.T, c.Sat)], len(f.X))
		f.X = append(f.X, XVar{T: c.T, Sat: c.Sat, Area: c.Area, ID: id})
		f.xKey[[3]int{c.T, c.Area, c.Sat}] = id
	}

	for _, c := range idx.Contacts() {
		// nothing is collected before t=0, so a download there is a
		// structural zero in every variant
		if c.T == 0 {
			continue
		}
		for i := 0; i < d.Areas; i++ {
			if !idx.CanCollect(c.Sat, i) {
				continue
			}
			id, err := m.AddBinary(fmt.Sprintf("y_%d_%d_%d_%d", c.T, i, c.Sat, c.Station))
			if err != nil {
				return nil, err
			}
			f.yAt[f.slot(c.T, c.Sat)] = append(f.yAt[f.slot(c.T, c.Sat)], len(f.Y))
			f.Y = append(f.Y, YVar{T: c.T, Sat: c.Sat, Area: i, Station: c.Station, ID: id})
			f.yKey[[4]int{c.T, i, c.Sat, c.Station}] = id
		}
	}

	if caps.Processing {
		for t := 1; t <= d.Horizon-f.pt; t++ {
			for j := 0; j < d.Satellites; j++ {
				for i := 0; i < d.Areas; i++ {
					if !idx.CanCollect(j, i) || idx.HasCollection(t, j, i) {
						continue
					}
					id, err := m.AddBinary(fmt.Sprintf("z_%d_%d_%d", t, i, j))
					if err != nil {
						return nil, err
					}
					f.zAt[f.slot(t, j)] = append(f.zAt[f.slot(t, j)], len(f.Z))
					f.Z = append(f.Z, ZVar{T: t, Sat: j, Area: i, ID: id})
					f.zKey[[3]int{t, i, j}] = id
				}
			}
		}
	}
	return f, nil
}

func (f *Fabric) slot(t, j int) int { return t*f.dims.Satellites + j }

func (f *Fabric) inGrid(t, j int) bool { return f.dims.ValidTime(t) && f.dims.ValidSat(j) }

// Dims returns the entity set extents.
func (f *Fabric) Dims() model.Dims { return f.dims }

// ProcessingTime returns pt, or 0 when processing variables are absent.
func (f *Fabric) ProcessingTime() int { return f.pt }

// XAt returns the collection variables of satellite j at time t.
func (f *Fabric) XAt(t, j int) []XVar {
	if !f.inGrid(t, j) {
		return nil
	}
	out := make([]XVar, len(f.xAt[f.slot(t, j)]))
	for n, k := range f.xAt[f.slot(t, j)] {
		out[n] = f.X[k]
	}
	return out
}

// YAt returns the downlink variables of satellite j at time t.
func (f *Fabric) YAt(t, j int) []YVar {
	if !f.inGrid(t, j) {
		return nil
	}
	out := make([]YVar, len(f.yAt[f.slot(t, j)]))
	for n, k := range f.yAt[f.slot(t, j)] {
		out[n] = f.Y[k]
	}
	return out
}

// ZAt returns the processing start variables of satellite j at time t.
func (f *Fabric) ZAt(t, j int) []ZVar {
	if !f.inGrid(t, j) {
		return nil
	}
	out := make([]ZVar, len(f.zAt[f.slot(t, j)]))
	for n, k := range f.zAt[f.slot(t, j)] {
		out[n] = f.Z[k]
	}
	return out
}

// LookupX returns x[t,i,j] if it exists.
func (f *Fabric) LookupX(t, i, j int) (milp.VarID, bool) {
	id, ok := f.xKey[[3]int{t, i, j}]
	return id, ok
}

// LookupY returns y[t,i,j,k] if it exists.
func (f *Fabric) LookupY(t, i, j, k int) (milp.VarID, bool) {
	id, ok := f.yKey[[4]int{t, i, j, k}]
	return id, ok
}

// LookupZ returns z[t,i,j] if it exists.
func (f *Fabric) LookupZ(t, i, j int) (milp.VarID, bool) {
	id, ok := f.zKey[[3]int{t, i, j}]
	return id, ok
}

// PrunedCounts reports how many tuples each family skipped.
func (f *Fabric) PrunedCounts() Pruned {
	d := f.dims
	full := d.Horizon * d.Areas * d.Satellites
	p := Pruned{
		X: full - len(f.X),
		Y: full*d.Stations - len(f.Y),
	}
	if f.pt > 0 {
		p.Z = full - len(f.Z)
	}
	return p
}
