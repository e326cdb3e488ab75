package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/eosched/core/milp"
	"github.com/kilianp07/eosched/core/model"
	"github.com/kilianp07/eosched/core/schedule"
	"github.com/kilianp07/eosched/infra/logger"
)

var (
	modelInstance string
	modelVariant  string
	modelLP       string
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Build the MILP for an instance and report its size",
	RunE:  runModel,
}

func init() {
	f := modelCmd.Flags()
	f.StringVarP(&modelInstance, "instance", "i", "", "instance file (yaml or json)")
	f.StringVar(&modelVariant, "variant", "", "base, processing or battery")
	f.StringVar(&modelLP, "lp", "", "write the model in CPLEX LP format to this file")
	_ = modelCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(modelCmd)
}

func runModel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if modelVariant != "" {
		cfg.Scheduler.Variant = modelVariant
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	caps, err := model.ParseVariant(cfg.Scheduler.Variant)
	if err != nil {
		return err
	}
	obj, err := schedule.ParseObjective(cfg.Scheduler.Objective)
	if err != nil {
		return err
	}
	inst, err := model.LoadInstance(modelInstance)
	if err != nil {
		return fmt.Errorf("load instance %s: %w", modelInstance, err)
	}
	p, err := schedule.Build(ctx, inst, caps,
		schedule.WithLogger(logger.New("builder")),
		schedule.WithWorkers(cfg.Scheduler.Workers),
		schedule.WithObjective(obj))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := p.Model.Stats()
	fmt.Fprintf(out, "variant=%s dims=%s variables=%d constraints=%d non_zeros=%d build=%s\n",
		caps.Variant(), inst.Dims, st.Variables, st.Constraints, st.NonZeros, p.BuildTime)
	for _, g := range p.Groups {
		fmt.Fprintf(out, "  %-28s rows=%d skipped=%d\n", g.Name, g.Rows, g.Skipped)
	}
	if bound, err := schedule.CollectionBound(inst); err == nil {
		fmt.Fprintf(out, "collection bound=%d\n", bound)
	}

	if modelLP == "" {
		return nil
	}
	f, err := os.Create(modelLP)
	if err != nil {
		return err
	}
	if err := milp.WriteLP(f, p.Model); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", modelLP, err)
	}
	return f.Close()
}
