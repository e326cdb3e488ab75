package gonumlp

import (
	"math"
	"slices"
)

// reduced is the outcome of presolving a node: tightened bounds and the
// rows that still constrain the free variables.
type reduced struct {
	lb, ub []float64
	active []int
}

// fixed reports whether every variable has equal bounds.
func (r *reduced) fixed() bool {
	for j := range r.lb {
		if r.lb[j] < r.ub[j] {
			return false
		}
	}
	return true
}

// presolve tightens the node box [lb, ub] until nothing changes. It reports
// false when the node is proven infeasible.
//
// Rules, applied to a fixpoint: activity based infeasibility, redundant row
// removal, integer bound propagation and dual fixing.
func (p *problem) presolve(lb0, ub0 []float64, tol float64) (*reduced, bool) {
	lb := slices.Clone(lb0)
	ub := slices.Clone(ub0)
	active := make([]bool, len(p.rows))
	for r := range active {
		active[r] = true
	}

	for changed := true; changed; {
		changed = false
		for r, row := range p.rows {
			if !active[r] {
				continue
			}
			lo, hi := row.bounds(lb, ub)
			if lo > row.rhs+tol || (row.eq && hi < row.rhs-tol) {
				return nil, false
			}
			if hi <= row.rhs+tol && (!row.eq || lo >= row.rhs-tol) {
				active[r] = false
				changed = true
				continue
			}
			if tighten(row, 1, row.rhs, lo, lb, ub, tol) {
				changed = true
			}
			if row.eq && tighten(row, -1, -row.rhs, -hi, lb, ub, tol) {
				changed = true
			}
		}
		for j := range lb {
			if lb[j] > ub[j]+tol {
				return nil, false
			}
		}
		if p.dualFix(active, lb, ub) {
			changed = true
		}
	}

	out := &reduced{lb: lb, ub: ub}
	for r, ok := range active {
		if ok {
			out.active = append(out.active, r)
		}
	}
	return out, true
}

// tighten propagates sign*row ≤ rhs, whose minimum activity is minAct, onto
// the bounds of its free variables.
func tighten(row sparseRow, sign, rhs, minAct float64, lb, ub []float64, tol float64) bool {
	changed := false
	for k, j := range row.idx {
		if lb[j] == ub[j] {
			continue
		}
		a := sign * row.coef[k]
		switch {
		case a > 0:
			rest := minAct - a*lb[j]
			nu := math.Floor((rhs-rest)/a + tol)
			if nu < ub[j] {
				ub[j] = nu
				changed = true
			}
		case a < 0:
			rest := minAct - a*ub[j]
			nl := math.Ceil((rhs-rest)/a - tol)
			if nl > lb[j] {
				lb[j] = nl
				changed = true
			}
		}
	}
	return changed
}

// dualFix fixes a variable at the bound its cost prefers when every active
// row it appears in is an inequality that the same move only loosens.
func (p *problem) dualFix(active []bool, lb, ub []float64) bool {
	changed := false
	for j := 0; j < p.n; j++ {
		if lb[j] == ub[j] {
			continue
		}
		pos, neg, eq := false, false, false
		for _, e := range p.cols[j] {
			if !active[e.row] {
				continue
			}
			if p.rows[e.row].eq {
				eq = true
				break
			}
			if e.coef > 0 {
				pos = true
			} else if e.coef < 0 {
				neg = true
			}
		}
		if eq {
			continue
		}
		c := p.cost[j]
		switch {
		case c >= 0 && !neg:
			ub[j] = lb[j]
			changed = true
		case c <= 0 && !pos:
			lb[j] = ub[j]
			changed = true
		}
	}
	return changed
}
