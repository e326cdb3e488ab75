package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/solver"
)

// headerStatus maps the first line of a CBC solution file.
func headerStatus(line string) (solver.Status, bool) {
	l := strings.ToLower(strings.TrimSpace(line))
	switch {
	case strings.HasPrefix(l, "optimal"):
		return solver.StatusOptimal, true
	case strings.HasPrefix(l, "infeasible"), strings.HasPrefix(l, "integer infeasible"):
		return solver.StatusInfeasible, false
	case strings.HasPrefix(l, "unbounded"):
		return solver.StatusUnbounded, false
	case strings.HasPrefix(l, "stopped"):
		return solver.StatusNotSolved, !strings.Contains(l, "no integer solution")
	}
	return solver.StatusUndefined, false
}

// parseSolution reads a CBC "solu" file. Value lines are
// "<index> <name> <value> <reduced cost>", possibly prefixed with "**".
func parseSolution(r io.Reader, m *milp.Model) (solver.Solution, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return solver.Solution{}, fmt.Errorf("cbc solution: %w", err)
		}
		return solver.Solution{}, fmt.Errorf("%w: empty solution file", ErrSolverExit)
	}
	header := sc.Text()
	status, withValues := headerStatus(header)
	if status == solver.StatusUndefined {
		return solver.Solution{}, fmt.Errorf("%w: unknown status %q", ErrSolverExit, header)
	}
	sol := solver.Solution{Status: status}
	if !withValues {
		return sol, nil
	}

	ids := make(map[string]milp.VarID, m.NumVars())
	for id, v := range m.Vars() {
		ids[milp.LPName(v.Name)] = milp.VarID(id)
	}
	sol.Values = make([]float64, m.NumVars())
	for sc.Scan() {
		f := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if len(f) < 3 {
			continue
		}
		id, ok := ids[f[1]]
		if !ok {
			return sol, fmt.Errorf("%w: unknown variable %q", ErrSolverExit, f[1])
		}
		v, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return sol, fmt.Errorf("%w: value of %s: %v", ErrSolverExit, f[1], err)
		}
		sol.Values[id] = v
	}
	if err := sc.Err(); err != nil {
		return sol, fmt.Errorf("cbc solution: %w", err)
	}
	// the printed objective omits constant terms
	sol.Objective = m.ObjectiveValue(sol.Values)
	return sol, nil
}
