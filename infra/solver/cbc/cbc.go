// Package cbc drives the COIN-OR CBC executable over LP files.
package cbc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kilianp07/eosched/core/factory"
	"github.com/kilianp07/eosched/core/logger"
	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/solver"
)

// Name is the registry key of this backend.
const Name = "cbc"

// ErrSolverExit is returned when CBC fails without writing a solution.
var ErrSolverExit = errors.New("cbc exited with an error")

// Config locates the executable.
type Config struct {
	Path      string   `json:"path"`
	ExtraArgs []string `json:"extra_args"`
	KeepFiles bool     `json:"keep_files"`
}

// runCommand executes the solver. Tests replace it.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Solver runs one CBC process per solve.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New returns a CBC backend. An empty path looks up "cbc" on PATH.
func New(cfg Config, log logger.Logger) *Solver {
	if cfg.Path == "" {
		cfg.Path = "cbc"
	}
	return &Solver{cfg: cfg, log: logger.OrNop(log)}
}

// NewFromConf decodes raw registry settings.
func NewFromConf(conf map[string]any, log logger.Logger) (*Solver, error) {
	var c Config
	if err := factory.Decode(conf, &c); err != nil {
		return nil, fmt.Errorf("cbc solver config: %w", err)
	}
	return New(c, log), nil
}

func (s *Solver) Name() string { return Name }

// Solve writes m to a temporary LP file and runs CBC on it. A context
// deadline is passed to CBC as its time limit.
func (s *Solver) Solve(ctx context.Context, m *milp.Model) (solver.Solution, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return notSolved(ctx, err, start)
	}

	dir, err := os.MkdirTemp("", "eosched-cbc-*")
	if err != nil {
		return solver.Solution{}, fmt.Errorf("cbc temp dir: %w", err)
	}
	if s.cfg.KeepFiles {
		s.log.Infof("cbc files kept in %s", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	if err := writeModel(lpPath, m); err != nil {
		return solver.Solution{}, err
	}

	args := []string{lpPath}
	if dl, ok := ctx.Deadline(); ok {
		sec := math.Max(1, math.Ceil(time.Until(dl).Seconds()))
		args = append(args, "sec", strconv.FormatFloat(sec, 'f', 0, 64))
	}
	args = append(args, s.cfg.ExtraArgs...)
	args = append(args, "solve", "solu", solPath)

	s.log.Debugf("running %s %v", s.cfg.Path, args)
	out, runErr := runCommand(ctx, s.cfg.Path, args...)
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return notSolved(ctx, ctx.Err(), start)
		}
		s.log.Warnf("cbc interrupted by deadline")
	}

	f, err := os.Open(solPath)
	if err != nil {
		if runErr != nil {
			return solver.Solution{Status: solver.StatusUndefined, Runtime: time.Since(start)},
				fmt.Errorf("%w: %v: %s", ErrSolverExit, runErr, tail(out))
		}
		if ctx.Err() != nil {
			return notSolved(ctx, ctx.Err(), start)
		}
		return solver.Solution{Status: solver.StatusUndefined, Runtime: time.Since(start)},
			fmt.Errorf("%w: no solution file: %v", ErrSolverExit, err)
	}
	defer f.Close()

	sol, err := parseSolution(f, m)
	sol.Runtime = time.Since(start)
	if err != nil {
		sol.Status = solver.StatusUndefined
		return sol, err
	}
	if runErr != nil {
		s.log.Warnf("cbc exit status %v with a solution file", runErr)
	}
	return sol, nil
}

func writeModel(path string, m *milp.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cbc model file: %w", err)
	}
	if err := milp.WriteLP(f, m); err != nil {
		f.Close()
		return fmt.Errorf("cbc model file: %w", err)
	}
	return f.Close()
}

func notSolved(ctx context.Context, err error, start time.Time) (solver.Solution, error) {
	sol := solver.Solution{Status: solver.StatusNotSolved, Runtime: time.Since(start)}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return sol, nil
	}
	return sol, fmt.Errorf("cbc solve: %w", err)
}

func tail(out []byte) string {
	const n = 512
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return string(bytes.TrimSpace(out))
}
