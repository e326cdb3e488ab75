// Package solver registers the MILP backends with the core registry.
package solver

import (
	coresolver "github.com/kilianp07/eosched/core/solver"
	"github.com/kilianp07/eosched/infra/logger"
	"github.com/kilianp07/eosched/infra/solver/cbc"
	"github.com/kilianp07/eosched/infra/solver/gonumlp"
)

// init registers built-in solver backends.
func init() {
	_ = coresolver.RegisterSolver(gonumlp.Name, func(conf map[string]any) (coresolver.Solver, error) {
		return gonumlp.NewFromConf(conf, logger.New("solver-gonum"))
	})

	_ = coresolver.RegisterSolver(cbc.Name, func(conf map[string]any) (coresolver.Solver, error) {
		return cbc.NewFromConf(conf, logger.New("solver-cbc"))
	})
}
