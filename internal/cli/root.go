// Package cli implements fitplanctl, the operator command line for
// maintenance tasks that run against the configured database.
package cli

import (
	"context"
	"fitplanhub/backend/internal/app"
	"fitplanhub/backend/internal/config"
	"io"

	"github.com/spf13/cobra"
)

// appFactory builds the application for a command. Tests replace it.
type appFactory func(ctx context.Context, configDir string) (*app.App, error)

func loadApp(ctx context.Context, configDir string) (*app.App, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.NewLogger(cfg))
}

// NewRootCmd builds the command tree. out receives command output.
func NewRootCmd(newApp appFactory, out io.Writer) *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "fitplanctl",
		Short: "FitPlanHub operator tools",
		Long: `fitplanctl runs maintenance tasks against the FitPlanHub database:
repairing denormalized counters, creating indexes and expiring subscriptions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")

	withApp := func(cmd *cobra.Command, run func(ctx context.Context, a *app.App) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, configDir)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a)
	}

	rootCmd.AddCommand(newReconcileCmd(withApp))
	rootCmd.AddCommand(newIndexesCmd(withApp))
	rootCmd.AddCommand(newExpireCmd(withApp))
	return rootCmd
}

// appRunner opens the application around a command body.
type appRunner func(cmd *cobra.Command, run func(ctx context.Context, a *app.App) error) error

// Execute runs fitplanctl with the real configuration.
func Execute() error {
	return NewRootCmd(loadApp, nil).Execute()
}
