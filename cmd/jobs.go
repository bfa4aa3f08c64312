package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"booking-engine/internal/usecase"

	"github.com/spf13/cobra"
)

// The jobs below are meant for an external scheduler (cron, a k8s CronJob).
// Each prints its report as JSON on stdout.

func reconcileCmd() *cobra.Command {
	var (
		from, to    string
		limit       int
		autoCorrect bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare local payments with the gateway for a time window",
		Long: `Compare local payments with the gateway for a time window.

Examples:
  booking-engine reconcile --from 2025-06-01T00:00:00Z --to 2025-06-02T00:00:00Z
  booking-engine reconcile --from 2025-06-01T00:00:00Z --to 2025-06-02T00:00:00Z --auto-correct`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dateFrom, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dateTo, err := time.Parse(time.RFC3339, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			rt, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.app.Service.Reconcile.Reconcile(cmd.Context(), usecase.ReconcileParams{
				DateFrom:    dateFrom,
				DateTo:      dateTo,
				Limit:       limit,
				AutoCorrect: autoCorrect,
				Actor:       "cli",
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "window start, RFC 3339")
	cmd.Flags().StringVar(&to, "to", "", "window end (exclusive), RFC 3339")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum payments to check (0 = configured maximum)")
	cmd.Flags().BoolVar(&autoCorrect, "auto-correct", false, "apply gateway values to mismatched payments")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func reapCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Cancel checkouts whose payment session expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.app.Service.Reaper.ReapExpiredCheckouts(cmd.Context(), time.Now().UTC(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum bookings per run")
	return cmd
}

func replayCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-drive webhook events that are still unprocessed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.app.Service.Webhook.ReplayPending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "maximum events per run")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
