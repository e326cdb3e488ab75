package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/eosched/app"
)

var (
	serveInstance string
	serveInterval int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-plan the configured instance periodically",
	RunE:  runService,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&serveInstance, "instance", "", "instance file (overrides service.instance)")
		c.Flags().IntVar(&serveInterval, "interval", 0, "seconds between runs (overrides service.interval_seconds)")
	}
	rootCmd.AddCommand(serveCmd)
}

func runService(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveInstance != "" {
		cfg.Service.Instance = serveInstance
	}
	if serveInterval > 0 {
		cfg.Service.IntervalSeconds = serveInterval
	}
	return withRuntime(ctx, cfg, func(rt *app.Runtime) error {
		svc, err := app.NewService(rt)
		if err != nil {
			return err
		}
		return svc.Run(ctx)
	})
}
