package gonumlp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/kilianp07/eosched/core/logger"
)

var errNodeLimit = errors.New("node limit reached")

type node struct {
	lb, ub []float64
	depth  int
}

type search struct {
	p        *problem
	cfg      Config
	log      logger.Logger
	nodes    int
	best     float64 // minimized cost of the incumbent
	incumb   []float64
	unbound  bool
	complete bool
}

// run explores the tree depth first. It stops early on a context error or
// on the node limit, keeping the incumbent.
func (s *search) run(ctx context.Context) error {
	s.best = math.Inf(1)
	root := node{lb: make([]float64, s.p.n), ub: make([]float64, s.p.n)}
	for j := range root.ub {
		root.ub[j] = 1
	}
	stack := []node{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.MaxNodes > 0 && s.nodes >= s.cfg.MaxNodes {
			return errNodeLimit
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.nodes++

		children, err := s.visit(nd)
		if err != nil {
			return fmt.Errorf("node %d: %w", s.nodes, err)
		}
		if s.unbound {
			return nil
		}
		stack = append(stack, children...)
	}
	s.complete = true
	return nil
}

// visit solves one node and returns the children to explore, the preferred
// one last.
func (s *search) visit(nd node) ([]node, error) {
	red, ok := s.p.presolve(nd.lb, nd.ub, s.cfg.IntTolerance)
	if !ok {
		return nil, nil
	}
	if red.fixed() {
		// nothing left for the simplex; the box is a single point
		if s.p.feasible(red.lb, s.cfg.IntTolerance) {
			s.accept(slices.Clone(red.lb))
		}
		return nil, nil
	}
	rel := s.p.standardForm(red)
	out, v, bound, err := rel.solve(s.cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	switch out {
	case lpInfeasible:
		return nil, nil
	case lpUnbounded:
		s.unbound = true
		return nil, nil
	}
	if s.prune(bound) {
		return nil, nil
	}
	x := rel.expand(red, v)

	branch, frac := -1, s.cfg.IntTolerance
	for j, xj := range x {
		if f := math.Abs(xj - math.Round(xj)); f > frac {
			branch, frac = j, f
		}
	}
	if branch < 0 {
		s.accept(x)
		return nil, nil
	}

	down := node{lb: red.lb, ub: cloneWith(red.ub, branch, math.Floor(x[branch])), depth: nd.depth + 1}
	up := node{lb: cloneWith(red.lb, branch, math.Ceil(x[branch])), ub: red.ub, depth: nd.depth + 1}
	if x[branch]-math.Floor(x[branch]) >= 0.5 {
		return []node{down, up}, nil
	}
	return []node{up, down}, nil
}

// prune reports whether a node bound cannot improve on the incumbent.
func (s *search) prune(bound float64) bool {
	if s.incumb == nil {
		return false
	}
	if s.p.objInt {
		return math.Ceil(bound-s.cfg.IntTolerance) >= s.best
	}
	return bound >= s.best-s.cfg.Tolerance
}

func (s *search) accept(x []float64) {
	for j := range x {
		x[j] = math.Round(x[j])
	}
	if !s.p.feasible(x, s.cfg.IntTolerance) {
		s.log.Warnf("gonumlp: integral relaxation violates a row at node %d, skipped", s.nodes)
		return
	}
	c := s.p.minCost(x)
	if s.incumb != nil && c >= s.best {
		return
	}
	s.best, s.incumb = c, x
	s.log.Debugw("incumbent", map[string]any{"node": s.nodes, "objective": s.p.objective(c)})
}

func cloneWith(v []float64, j int, val float64) []float64 {
	out := append([]float64(nil), v...)
	out[j] = val
	return out
}
