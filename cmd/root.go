package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/eosched/app"
	"github.com/kilianp07/eosched/config"
	"github.com/kilianp07/eosched/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "eosched",
	Short:         "Earth-observation constellation scheduler",
	RunE:          runService,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads --config. A missing default file yields the built-in
// defaults while an explicitly named file must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withRuntime builds the runtime for cfg, runs fn and releases it.
func withRuntime(ctx context.Context, cfg *config.Config, fn func(*app.Runtime) error) error {
	rt, err := app.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.New("main").Errorf("runtime close: %v", err)
		}
	}()
	return fn(rt)
}
