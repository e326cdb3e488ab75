package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/eosched/core/factory"
	coresolver "github.com/kilianp07/eosched/core/solver"
)

func TestBuiltinSolvers(t *testing.T) {
	assert.Subset(t, coresolver.Solvers(), []string{"cbc", "gonum"})

	s, err := coresolver.NewSolver(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.Equal(t, "gonum", s.Name())

	s, err = coresolver.NewSolver(factory.ModuleConfig{Type: "cbc", Conf: map[string]any{"path": "cbc"}})
	require.NoError(t, err)
	assert.Equal(t, "cbc", s.Name())

	_, err = coresolver.NewSolver(factory.ModuleConfig{Type: "gonum", Conf: map[string]any{"max_nodes": "lots"}})
	assert.Error(t, err)
}
