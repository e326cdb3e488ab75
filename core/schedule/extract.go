package schedule

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/solver"
)

// DefaultTolerance is the integrality tolerance used when none is configured.
const DefaultTolerance = 1e-6

// ErrFractional marks a solver assignment that is not integral within the
// tolerance. It indicates a solver defect, never infeasibility.
var ErrFractional = errors.New("fractional solution value")

// FractionalError names the first non-integral variable.
type FractionalError struct {
	Var   string
	Value float64
}

func (e *FractionalError) Error() string {
	return fmt.Sprintf("variable %s has non-integral value %g", e.Var, e.Value)
}

func (e *FractionalError) Unwrap() error { return ErrFractional }

// Collect is a scheduled imaging of Area by Sat at T.
type Collect struct {
	T    int `json:"t"`
	Sat  int `json:"sat"`
	Area int `json:"area"`
}

// Process is a processing job on Area started by Sat at T.
type Process struct {
	T    int `json:"t"`
	Sat  int `json:"sat"`
	Area int `json:"area"`
}

// Downlink is the transfer of Area from Sat to Station at T.
type Downlink struct {
	T       int `json:"t"`
	Sat     int `json:"sat"`
	Area    int `json:"area"`
	Station int `json:"station"`
}

// Schedule is the decoded plan.
type Schedule struct {
	Variant     string        `json:"variant"`
	Status      solver.Status `json:"status"`
	Objective   float64       `json:"objective"`
	Collections []Collect     `json:"collections"`
	Processing  []Process     `json:"processing"`
	Downlinks   []Downlink    `json:"downlinks"`
}

// Events returns the number of scheduled events.
func (s Schedule) Events() int {
	return len(s.Collections) + len(s.Processing) + len(s.Downlinks)
}

// Extract decodes a solver assignment. Values within tol of 1 are taken as
// set, within tol of 0 as unset; anything else is a *FractionalError. A
// solution without values yields an empty schedule carrying the status.
func Extract(p *Problem, sol solver.Solution, tol float64) (Schedule, error) {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	s := Schedule{
		Variant:     p.Caps.Variant(),
		Status:      sol.Status,
		Objective:   sol.Objective,
		Collections: []Collect{},
		Processing:  []Process{},
		Downlinks:   []Downlink{},
	}
	if !sol.HasValues() {
		return s, nil
	}
	if len(sol.Values) != p.Model.NumVars() {
		return s, fmt.Errorf("solution has %d values for %d variables", len(sol.Values), p.Model.NumVars())
	}

	rounded := make([]float64, len(sol.Values))
	for n, v := range sol.Values {
		switch {
		case math.Abs(v-1) < tol:
			rounded[n] = 1
		case math.Abs(v) < tol:
			rounded[n] = 0
		default:
			return s, &FractionalError{Var: p.Model.Var(milp.VarID(n)).Name, Value: v}
		}
	}
	set := func(id milp.VarID) bool { return rounded[id] == 1 }

	f := p.Fabric
	s.Collections = lo.FilterMap(f.X, func(x XVar, _ int) (Collect, bool) {
		return Collect{T: x.T, Sat: x.Sat, Area: x.Area}, set(x.ID)
	})
	s.Processing = lo.FilterMap(f.Z, func(z ZVar, _ int) (Process, bool) {
		return Process{T: z.T, Sat: z.Sat, Area: z.Area}, set(z.ID)
	})
	s.Downlinks = lo.FilterMap(f.Y, func(y YVar, _ int) (Downlink, bool) {
		return Downlink{T: y.T, Sat: y.Sat, Area: y.Area, Station: y.Station}, set(y.ID)
	})
	sortEvents(&s)
	s.Objective = p.Model.ObjectiveValue(rounded)
	return s, nil
}

func sortEvents(s *Schedule) {
	slices.SortFunc(s.Collections, func(a, b Collect) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Sat, b.Sat), cmp.Compare(a.Area, b.Area))
	})
	slices.SortFunc(s.Processing, func(a, b Process) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Sat, b.Sat), cmp.Compare(a.Area, b.Area))
	})
	slices.SortFunc(s.Downlinks, func(a, b Downlink) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Sat, b.Sat), cmp.Compare(a.Area, b.Area), cmp.Compare(a.Station, b.Station))
	})
}
