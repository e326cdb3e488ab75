package model

import "sort"

// ShadowEntry sets the eclipse flag of satellite Sat at time T.
type ShadowEntry struct {
	T      int `json:"t" yaml:"t"`
	Sat    int `json:"sat" yaml:"sat"`
	Shadow int `json:"shadow" yaml:"shadow"`
}

// Interval is a half-open [Start, End) range of time slots.
type Interval struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Eclipse is the dense (time x satellite) shadow indicator. The zero value
// means sunlit everywhere.
type Eclipse struct {
	dims   Dims
	dark   []bool
	sunlit []int // cumulative sunlit instants, indexed j*p + t
}

// NewEclipse builds the indicator from sparse entries. Missing keys default
// to sunlit; entries outside the grid or with a flag other than 0/1 are rejected.
func NewEclipse(d Dims, entries []ShadowEntry) (*Eclipse, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	e := &Eclipse{dims: d, dark: make([]bool, d.Horizon*d.Satellites)}
	for row, s := range entries {
		switch {
		case !d.ValidTime(s.T):
			return nil, rowErr("eclipse.dense", row, "time %d outside horizon [0,%d)", s.T, d.Horizon)
		case !d.ValidSat(s.Sat):
			return nil, rowErr("eclipse.dense", row, "satellite %d outside fleet [0,%d)", s.Sat, d.Satellites)
		case s.Shadow != 0 && s.Shadow != 1:
			return nil, rowErr("eclipse.dense", row, "shadow flag must be 0 or 1, got %d", s.Shadow)
		}
		e.dark[s.Sat*d.Horizon+s.T] = s.Shadow == 1
	}
	e.accumulate()
	return e, nil
}

// EclipseFromIntervals builds the indicator from per-satellite eclipse
// intervals. Each list must be sorted, non-overlapping and contained in the
// horizon; every interval must be non-empty.
func EclipseFromIntervals(d Dims, intervals map[int][]Interval) (*Eclipse, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	e := &Eclipse{dims: d, dark: make([]bool, d.Horizon*d.Satellites)}
	sats := make([]int, 0, len(intervals))
	for j := range intervals {
		sats = append(sats, j)
	}
	sort.Ints(sats)
	for _, j := range sats {
		field := "eclipse.intervals"
		if !d.ValidSat(j) {
			return nil, fieldErr(field, "satellite %d outside fleet [0,%d)", j, d.Satellites)
		}
		prevEnd := -1
		for row, iv := range intervals[j] {
			switch {
			case iv.Start >= iv.End:
				return nil, rowErr(field, row, "satellite %d: empty or inverted interval [%d,%d)", j, iv.Start, iv.End)
			case iv.Start < 0 || iv.End > d.Horizon:
				return nil, rowErr(field, row, "satellite %d: interval [%d,%d) outside horizon [0,%d)", j, iv.Start, iv.End, d.Horizon)
			case iv.Start < prevEnd:
				return nil, rowErr(field, row, "satellite %d: interval [%d,%d) overlaps or precedes previous end %d", j, iv.Start, iv.End, prevEnd)
			}
			for t := iv.Start; t < iv.End; t++ {
				e.dark[j*d.Horizon+t] = true
			}
			prevEnd = iv.End
		}
	}
	e.accumulate()
	return e, nil
}

func (e *Eclipse) accumulate() {
	p := e.dims.Horizon
	e.sunlit = make([]int, len(e.dark))
	for j := 0; j < e.dims.Satellites; j++ {
		run := 0
		for t := 0; t < p; t++ {
			if !e.dark[j*p+t] {
				run++
			}
			e.sunlit[j*p+t] = run
		}
	}
}

// InShadow returns 1 when satellite j is in eclipse at t, 0 otherwise.
// Reads outside the grid are sunlit.
func (e *Eclipse) InShadow(t, j int) int {
	if e == nil || !e.dims.ValidTime(t) || !e.dims.ValidSat(j) {
		return 0
	}
	if e.dark[j*e.dims.Horizon+t] {
		return 1
	}
	return 0
}

// SunlitThrough counts the sunlit instants of satellite j in [0, t].
func (e *Eclipse) SunlitThrough(t, j int) int {
	if t < 0 {
		return 0
	}
	if e == nil || len(e.sunlit) == 0 {
		return t + 1
	}
	if t >= e.dims.Horizon {
		t = e.dims.Horizon - 1
	}
	if !e.dims.ValidSat(j) {
		return t + 1
	}
	return e.sunlit[j*e.dims.Horizon+t]
}
