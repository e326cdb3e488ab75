package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/eosched/app"
	"github.com/kilianp07/eosched/config"
	"github.com/kilianp07/eosched/pkg/export"
)

type solveFlags struct {
	instance   string
	variant    string
	objective  string
	solver     string
	timeout    float64
	out        string
	format     string
	trajectory bool
}

var solveOpts solveFlags

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Plan a single instance and print or write the schedule",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.instance, "instance", "i", "", "instance file (yaml or json)")
	f.StringVar(&solveOpts.variant, "variant", "", "base, processing or battery")
	f.StringVar(&solveOpts.objective, "objective", "", "count or value")
	f.StringVar(&solveOpts.solver, "solver", "", "solver backend")
	f.Float64Var(&solveOpts.timeout, "timeout", 0, "solve time limit in seconds")
	f.StringVarP(&solveOpts.out, "out", "o", "", "output directory; stdout when empty")
	f.StringVar(&solveOpts.format, "format", "", "json or csv")
	f.BoolVar(&solveOpts.trajectory, "trajectory", false, "include memory and battery trajectories")
	_ = solveCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(solveCmd)
}

// apply overrides cfg with the flags that were set.
func (o solveFlags) apply(cfg *config.Config) error {
	if o.variant != "" {
		cfg.Scheduler.Variant = o.variant
	}
	if o.objective != "" {
		cfg.Scheduler.Objective = o.objective
	}
	if o.solver != "" && o.solver != cfg.Solver.Type {
		cfg.Solver.Type = o.solver
		cfg.Solver.Conf = nil
	}
	if o.timeout > 0 {
		cfg.Scheduler.TimeoutSeconds = o.timeout
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if o.trajectory {
		cfg.Output.Trajectory = true
	}
	cfg.Output.Dir = o.out
	return cfg.Validate()
}

func runSolve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := solveOpts.apply(cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return withRuntime(ctx, cfg, func(rt *app.Runtime) error {
		res, err := rt.PlanFile(ctx, solveOpts.instance)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s status=%s objective=%g events=%d violations=%d\n",
			res.RunID, res.Variant, res.Schedule.Status, res.Schedule.Objective,
			res.Schedule.Events(), len(res.Violations))
		if cfg.Output.Dir != "" {
			return nil
		}
		w := cmd.OutOrStdout()
		if cfg.Output.Format == "csv" {
			return export.WriteCSV(w, res.Schedule)
		}
		return export.WriteJSON(w, res, cfg.Output.Trajectory)
	})
}
