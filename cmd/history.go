package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/eosched/core/history"
)

var (
	histVariant string
	histStatus  string
	histSince   time.Duration
	histLimit   int
	histJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past planning runs",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&histVariant, "variant", "", "only runs of this variant")
	f.StringVar(&histStatus, "status", "", "only runs with this solver status")
	f.DurationVar(&histSince, "since", 0, "only runs newer than this duration")
	f.IntVarP(&histLimit, "limit", "n", 20, "most recent runs to show; 0 shows all")
	f.BoolVar(&histJSON, "json", false, "print records as JSON lines")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer store.Close()

	q := history.Query{Variant: histVariant, Status: histStatus, Limit: histLimit}
	if histSince > 0 {
		q.Start = time.Now().Add(-histSince)
	}
	recs, err := store.Query(ctx, q)
	if err != nil {
		return err
	}

	if histJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tVARIANT\tSOLVER\tSTATUS\tOBJECTIVE\tBOUND\tEVENTS\tSOLVE_MS\tERROR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\t%d\t%d\t%.1f\t%s\n",
			r.Timestamp.Local().Format(time.DateTime), r.RunID, r.Variant, r.Solver, r.Status,
			r.Objective, r.Bound, r.Collections+r.Processing+r.Downlinks, r.SolveMS, r.Error)
	}
	return tw.Flush()
}
