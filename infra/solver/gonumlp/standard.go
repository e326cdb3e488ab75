package gonumlp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

type lpOutcome int

const (
	lpSolved lpOutcome = iota
	lpInfeasible
	lpUnbounded
)

// relaxation is a presolved node in equality standard form:
// min cᵀv s.t. Av = b, v ≥ 0, with the start basis in basis.
type relaxation struct {
	free   []int // model variable of each structural column
	c      []float64
	a      *mat.Dense
	b      []float64
	basis  []int
	artif  []int // artificial columns
	offset float64
}

// standardForm shifts the free variables to their lower bounds, adds a
// slack or an artificial per row and emits upper bound rows the active
// rows do not already imply. The start basis is the identity formed by
// those slacks and artificials.
func (p *problem) standardForm(red *reduced) *relaxation {
	lb, ub := red.lb, red.ub
	rel := &relaxation{}
	col := make(map[int]int)
	for j := 0; j < p.n; j++ {
		if lb[j] < ub[j] {
			col[j] = len(rel.free)
			rel.free = append(rel.free, j)
		}
		rel.offset += p.cost[j] * lb[j]
	}

	type srow struct {
		coef  map[int]float64
		rhs   float64
		slack float64 // 0 for equality rows
		art   bool
	}
	var rows []srow
	implied := make([]bool, len(rel.free))
	for _, r := range red.active {
		row := p.rows[r]
		sr := srow{coef: make(map[int]float64, len(row.idx)), rhs: row.rhs}
		nonneg := true
		for k, j := range row.idx {
			sr.rhs -= row.coef[k] * lb[j]
			if c, ok := col[j]; ok {
				sr.coef[c] += row.coef[k]
				if row.coef[k] < 0 {
					nonneg = false
				}
			}
		}
		if !row.eq {
			sr.slack = 1
			if nonneg && sr.rhs >= 0 {
				for c, a := range sr.coef {
					if a > 0 && sr.rhs/a <= ub[rel.free[c]]-lb[rel.free[c]] {
						implied[c] = true
					}
				}
			}
		}
		if sr.rhs < 0 {
			for c := range sr.coef {
				sr.coef[c] = -sr.coef[c]
			}
			sr.rhs = -sr.rhs
			sr.slack = -sr.slack
		}
		sr.art = sr.slack != 1
		rows = append(rows, sr)
	}
	for c, j := range rel.free {
		if !implied[c] {
			rows = append(rows, srow{coef: map[int]float64{c: 1}, rhs: ub[j] - lb[j], slack: 1})
		}
	}

	nf := len(rel.free)
	slacks, arts := 0, 0
	for _, r := range rows {
		if r.slack != 0 {
			slacks++
		}
		if r.art {
			arts++
		}
	}
	m, n := len(rows), nf+slacks+arts
	if m == 0 || n == 0 {
		// mat rejects empty matrices; solve handles a nil a
		for _, r := range rows {
			rel.b = append(rel.b, r.rhs)
		}
		for _, j := range rel.free {
			rel.c = append(rel.c, p.cost[j])
		}
		return rel
	}
	rel.a = mat.NewDense(m, n, nil)
	rel.b = make([]float64, m)
	rel.c = make([]float64, n)
	rel.basis = make([]int, m)
	for c, j := range rel.free {
		rel.c[c] = p.cost[j]
	}
	s, art := nf, nf+slacks
	for i, r := range rows {
		for c, a := range r.coef {
			rel.a.Set(i, c, a)
		}
		rel.b[i] = r.rhs
		if r.slack != 0 {
			rel.a.Set(i, s, r.slack)
			if r.slack > 0 {
				rel.basis[i] = s
			}
			s++
		}
		if r.art {
			rel.a.Set(i, art, 1)
			rel.basis[i] = art
			rel.artif = append(rel.artif, art)
			art++
		}
	}
	return rel
}

// bigM returns a penalty that dominates any objective swing over the box.
func (rel *relaxation) bigM() float64 {
	s := 0.0
	for c := range rel.free {
		s += math.Abs(rel.c[c])
	}
	return 1e3 * math.Max(1, s)
}

// solve runs the simplex on the relaxation. Artificial columns are priced
// with a big-M penalty; when an artificial stays basic the phase one
// problem decides whether the node is empty or the penalty was too small.
func (rel *relaxation) solve(tol float64) (lpOutcome, []float64, float64, error) {
	if rel.a == nil {
		return rel.degenerate(tol)
	}
	if len(rel.artif) == 0 {
		return rel.simplex(rel.c, tol)
	}
	penalty := rel.bigM()
	for try := 0; try < 3; try++ {
		c := append([]float64(nil), rel.c...)
		for _, a := range rel.artif {
			c[a] = penalty
		}
		out, v, _, err := rel.simplex(c, tol)
		if err != nil || out != lpSolved {
			return out, v, 0, err
		}
		if rel.artificialSum(v) <= 1e-6 {
			return lpSolved, v, rel.value(v), nil
		}
		phase1 := make([]float64, len(rel.c))
		for _, a := range rel.artif {
			phase1[a] = 1
		}
		out, v, _, err = rel.simplex(phase1, tol)
		if err != nil {
			return out, nil, 0, err
		}
		if out == lpSolved && rel.artificialSum(v) > 1e-6 {
			return lpInfeasible, nil, 0, nil
		}
		penalty *= 1e3
	}
	return lpSolved, nil, 0, errors.New("gonumlp: artificial columns stay basic on a feasible node")
}

// degenerate solves a relaxation without a matrix: either no rows, where
// every free column sits at the cheaper end of [0, 1], or no columns, where
// the remaining equalities must already hold.
func (rel *relaxation) degenerate(tol float64) (lpOutcome, []float64, float64, error) {
	for _, b := range rel.b {
		if math.Abs(b) > math.Max(tol, 1e-9) {
			return lpInfeasible, nil, 0, nil
		}
	}
	v := make([]float64, len(rel.free))
	for c := range v {
		if rel.c[c] < 0 {
			v[c] = 1
		}
	}
	return lpSolved, v, rel.value(v), nil
}

func (rel *relaxation) artificialSum(v []float64) float64 {
	s := 0.0
	for _, a := range rel.artif {
		s += v[a]
	}
	return s
}

func (rel *relaxation) value(v []float64) float64 {
	z := rel.offset
	for c := range rel.free {
		z += rel.c[c] * v[c]
	}
	return z
}

// simplex wraps lp.Simplex, which panics on malformed input.
func (rel *relaxation) simplex(c []float64, tol float64) (out lpOutcome, v []float64, z float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gonumlp: simplex: %v", r)
		}
	}()
	_, v, err = lp.Simplex(c, rel.a, rel.b, tol, rel.basis)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return lpInfeasible, nil, 0, nil
	case errors.Is(err, lp.ErrUnbounded):
		return lpUnbounded, nil, 0, nil
	case err != nil:
		return lpSolved, nil, 0, fmt.Errorf("gonumlp: simplex: %w", err)
	}
	return lpSolved, v, rel.value(v), nil
}

// expand maps a relaxation solution back onto every model variable.
func (rel *relaxation) expand(red *reduced, v []float64) []float64 {
	x := append([]float64(nil), red.lb...)
	for c, j := range rel.free {
		x[j] += v[c]
	}
	return x
}
