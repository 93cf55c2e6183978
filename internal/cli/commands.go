package cli

import (
	"context"
	"encoding/json"
	"fitplanhub/backend/internal/app"
	"fitplanhub/backend/internal/domain"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newReconcileCmd(withApp appRunner) *cobra.Command {
	var (
		dryRun bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute denormalized counters from source records",
		Long: `Recomputes follower, subscriber, revenue, plan and rating counters from
the follow edges, payments, plans and reviews, and repairs every drifted value.
Use --dry-run to report drift without writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Reconcile.Reconcile(ctx, dryRun)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without repairing it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, report *domain.ReconcileReport) {
	fmt.Fprintf(w, "Checked %d accounts and %d plans\n", report.UsersChecked, report.PlansChecked)
	if len(report.Drift) == 0 {
		fmt.Fprintln(w, "No drift found")
		return
	}
	for _, d := range report.Drift {
		fmt.Fprintf(w, "  %s/%s %s: stored=%v actual=%v\n", d.Collection, d.ID, d.Field, d.Stored, d.Actual)
	}
	if report.DryRun {
		fmt.Fprintf(w, "%d drifted values (dry run, nothing written)\n", len(report.Drift))
		return
	}
	fmt.Fprintf(w, "Repaired %d records\n", report.Repaired)
}

func newIndexesCmd(withApp appRunner) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.DB == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Memory driver configured; no indexes to create")
					return nil
				}
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				if err := a.EnsureIndexes(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Indexes created")
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "how long to wait for index builds")
	return cmd
}

func newExpireCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Move active subscriptions past their end date to expired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				n, err := a.Subscriptions.ExpireDue(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d subscriptions\n", n)
				return nil
			})
		},
	}
}
