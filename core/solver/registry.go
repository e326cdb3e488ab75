package solver

import (
	"errors"

	"github.com/kilianp07/eosched/core/factory"
)

// ErrUnknownSolver is returned when no backend is registered under a name.
var ErrUnknownSolver = errors.New("unknown solver")

var registry = factory.NewRegistry[Solver]()

// RegisterSolver adds a backend factory identified by name.
func RegisterSolver(name string, f factory.Factory[Solver]) error {
	return registry.Register(name, f)
}

// NewSolver builds the backend selected by cfg. An empty type selects
// DefaultSolver.
func NewSolver(cfg factory.ModuleConfig) (Solver, error) {
	if cfg.Type == "" {
		cfg.Type = DefaultSolver
	}
	s, err := registry.Create(cfg)
	if errors.Is(err, factory.ErrUnknownType) {
		return nil, errors.Join(ErrUnknownSolver, err)
	}
	return s, err
}

// Solvers lists the registered backend names.
func Solvers() []string { return registry.Types() }

// DefaultSolver names the in-process backend.
const DefaultSolver = "gonum"
