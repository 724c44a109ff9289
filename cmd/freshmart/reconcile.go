package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"freshmart/internal/config"
	"freshmart/internal/repos"
)

func reconcileCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Settle stale PENDING orders by asking each provider",
		Long: `Looks up every PENDING order older than --older-than, asks its payment
provider for the attempt status, and finalizes or fails it. Payments that
need a human are listed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg := config.Load()
			closeLog := setupLogging(cfg)
			defer closeLog()

			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			wired, err := buildCheckout(ctx, db, cfg)
			if err != nil {
				return err
			}
			defer wired.close()

			rep, err := wired.checkout.Reconcile(ctx, olderThan)
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "checked %d: paid %d, failed %d, still pending %d, skipped %d, errors %d\n",
				rep.Checked, rep.Paid, rep.Failed, rep.StillPending, rep.Skipped, rep.Errors)
			for _, p := range rep.Flagged {
				fmt.Fprintf(out, "FLAGGED order=%s provider=%s ref=%s status=%s note=%q\n",
					p.OrderID, p.Provider, p.ProviderRef.String, p.Status, p.ReconcileNote.String)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "only orders created before now minus this")
	return cmd
}
