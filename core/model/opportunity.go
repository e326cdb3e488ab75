package model

import "sort"

// Collection is a (time, satellite, area) imaging opportunity. Value is an
// opaque quality weight carried through from the raw records.
type Collection struct {
	T     int     `json:"t" yaml:"t"`
	Sat   int     `json:"sat" yaml:"sat"`
	Area  int     `json:"area" yaml:"area"`
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// Contact is a (time, satellite, station) communication opportunity.
type Contact struct {
	T       int     `json:"t" yaml:"t"`
	Sat     int     `json:"sat" yaml:"sat"`
	Station int     `json:"station" yaml:"station"`
	Value   float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

type colKey struct{ t, j, i int }
type comKey struct{ t, j, k int }

// OpportunityIndex is the validated, read-only membership view over the
// collection and communication opportunity sets.
type OpportunityIndex struct {
	dims Dims
	col  map[colKey]float64
	com  map[comKey]float64

	cols []Collection // sorted by (t, sat, area)
	coms []Contact    // sorted by (t, sat, station)

	// pairs[j][i] is true when satellite j can image area i at some instant.
	pairs [][]bool
}

// NewOpportunityIndex validates the raw opportunity lists against dims and
// returns an immutable index. Duplicate keys keep the last value seen.
func NewOpportunityIndex(d Dims, cols []Collection, coms []Contact) (*OpportunityIndex, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	idx := &OpportunityIndex{
		dims:  d,
		col:   make(map[colKey]float64, len(cols)),
		com:   make(map[comKey]float64, len(coms)),
		pairs: make([][]bool, d.Satellites),
	}
	for j := range idx.pairs {
		idx.pairs[j] = make([]bool, d.Areas)
	}
	for row, c := range cols {
		switch {
		case !d.ValidTime(c.T):
			return nil, rowErr("collections", row, "time %d outside horizon [0,%d)", c.T, d.Horizon)
		case !d.ValidSat(c.Sat):
			return nil, rowErr("collections", row, "satellite %d outside fleet [0,%d)", c.Sat, d.Satellites)
		case !d.ValidArea(c.Area):
			return nil, rowErr("collections", row, "area %d outside [0,%d)", c.Area, d.Areas)
		}
		idx.col[colKey{c.T, c.Sat, c.Area}] = c.Value
		idx.pairs[c.Sat][c.Area] = true
	}
	for row, c := range coms {
		switch {
		case !d.ValidTime(c.T):
			return nil, rowErr("communications", row, "time %d outside horizon [0,%d)", c.T, d.Horizon)
		case !d.ValidSat(c.Sat):
			return nil, rowErr("communications", row, "satellite %d outside fleet [0,%d)", c.Sat, d.Satellites)
		case !d.ValidStation(c.Station):
			return nil, rowErr("communications", row, "station %d outside [0,%d)", c.Station, d.Stations)
		}
		idx.com[comKey{c.T, c.Sat, c.Station}] = c.Value
	}

	idx.cols = make([]Collection, 0, len(idx.col))
	for k, v := range idx.col {
		idx.cols = append(idx.cols, Collection{T: k.t, Sat: k.j, Area: k.i, Value: v})
	}
	sort.Slice(idx.cols, func(a, b int) bool {
		x, y := idx.cols[a], idx.cols[b]
		if x.T != y.T {
			return x.T < y.T
		}
		if x.Sat != y.Sat {
			return x.Sat < y.Sat
		}
		return x.Area < y.Area
	})
	idx.coms = make([]Contact, 0, len(idx.com))
	for k, v := range idx.com {
		idx.coms = append(idx.coms, Contact{T: k.t, Sat: k.j, Station: k.k, Value: v})
	}
	sort.Slice(idx.coms, func(a, b int) bool {
		x, y := idx.coms[a], idx.coms[b]
		if x.T != y.T {
			return x.T < y.T
		}
		if x.Sat != y.Sat {
			return x.Sat < y.Sat
		}
		return x.Station < y.Station
	})
	return idx, nil
}

// Dims returns the entity set extents the index was validated against.
func (o *OpportunityIndex) Dims() Dims { return o.dims }

// HasCollection reports whether satellite j can image area i at time t.
func (o *OpportunityIndex) HasCollection(t, j, i int) bool {
	_, ok := o.col[colKey{t, j, i}]
	return ok
}

// HasContact reports whether satellite j can reach station k at time t.
func (o *OpportunityIndex) HasContact(t, j, k int) bool {
	_, ok := o.com[comKey{t, j, k}]
	return ok
}

// CollectionValue returns the weight carried by a collection opportunity,
// or zero when the opportunity does not exist.
func (o *OpportunityIndex) CollectionValue(t, j, i int) float64 {
	return o.col[colKey{t, j, i}]
}

// CanCollect reports whether satellite j has any opportunity to image area i.
func (o *OpportunityIndex) CanCollect(j, i int) bool {
	if !o.dims.ValidSat(j) || !o.dims.ValidArea(i) {
		return false
	}
	return o.pairs[j][i]
}

// Collections returns every collection opportunity ordered by time,
// satellite then area. The slice must not be modified.
func (o *OpportunityIndex) Collections() []Collection { return o.cols }

// Contacts returns every communication opportunity ordered by time,
// satellite then station. The slice must not be modified.
func (o *OpportunityIndex) Contacts() []Contact { return o.coms }

// CollectionsAt returns the areas satellite j can image at time t in
// ascending order.
func (o *OpportunityIndex) CollectionsAt(t, j int) []int {
	var out []int
	for i := 0; i < o.dims.Areas; i++ {
		if o.HasCollection(t, j, i) {
			out = append(out, i)
		}
	}
	return out
}

// ContactsAt returns the stations satellite j can reach at time t in
// ascending order.
func (o *OpportunityIndex) ContactsAt(t, j int) []int {
	var out []int
	for k := 0; k < o.dims.Stations; k++ {
		if o.HasContact(t, j, k) {
			out = append(out, k)
		}
	}
	return out
}
