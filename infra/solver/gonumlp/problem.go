package gonumlp

import (
	"math"

	"github.com/kilianp07/eosched/core/milp"
)

// sparseRow is a constraint in "≤" or "=" form.
type sparseRow struct {
	idx  []int
	coef []float64
	eq   bool
	rhs  float64
}

func (r sparseRow) activity(x []float64) float64 {
	v := 0.0
	for k, j := range r.idx {
		v += r.coef[k] * x[j]
	}
	return v
}

// bounds returns the smallest and largest activity over the box [lb, ub].
func (r sparseRow) bounds(lb, ub []float64) (lo, hi float64) {
	for k, j := range r.idx {
		a := r.coef[k]
		if a > 0 {
			lo += a * lb[j]
			hi += a * ub[j]
		} else {
			lo += a * ub[j]
			hi += a * lb[j]
		}
	}
	return lo, hi
}

type entry struct {
	row  int
	coef float64
}

// problem is a binary program in minimization form.
type problem struct {
	n       int
	rows    []sparseRow
	cost    []float64 // minimized
	cols    [][]entry // rows containing each variable
	flip    bool      // the model maximizes; cost holds the negated objective
	objInt  bool      // every objective coefficient is integral
	objBase float64
}

func newProblem(m *milp.Model) *problem {
	p := &problem{n: m.NumVars(), cost: make([]float64, m.NumVars()), objInt: true}
	obj, maximize := m.Objective()
	p.flip = maximize
	sign := 1.0
	if maximize {
		sign = -1
	}
	for _, t := range obj.Terms {
		p.cost[t.Var] += sign * t.Coef
	}
	for _, c := range p.cost {
		if c != math.Trunc(c) {
			p.objInt = false
		}
	}
	p.objBase = obj.Const

	p.cols = make([][]entry, p.n)
	for _, c := range m.Constraints() {
		row := sparseRow{eq: c.Sense == milp.EQ, rhs: c.RHS}
		s := 1.0
		if c.Sense == milp.GE {
			s = -1
			row.rhs = -c.RHS
		}
		for _, t := range c.Expr.Terms {
			row.idx = append(row.idx, int(t.Var))
			row.coef = append(row.coef, s*t.Coef)
		}
		r := len(p.rows)
		for k, j := range row.idx {
			p.cols[j] = append(p.cols[j], entry{row: r, coef: row.coef[k]})
		}
		p.rows = append(p.rows, row)
	}
	return p
}

// feasible checks x against every original row.
func (p *problem) feasible(x []float64, tol float64) bool {
	for _, r := range p.rows {
		a := r.activity(x)
		if a > r.rhs+tol {
			return false
		}
		if r.eq && a < r.rhs-tol {
			return false
		}
	}
	return true
}

// minCost evaluates the minimized objective.
func (p *problem) minCost(x []float64) float64 {
	v := 0.0
	for j, c := range p.cost {
		v += c * x[j]
	}
	return v
}

// objective converts a minimized cost back to the model's sense.
func (p *problem) objective(minCost float64) float64 {
	if p.flip {
		return -minCost + p.objBase
	}
	return minCost + p.objBase
}
