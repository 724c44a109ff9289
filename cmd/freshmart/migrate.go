package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freshmart/internal/config"
	"freshmart/internal/repos"
)

func migrateCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to DB_DSN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := repos.Connect(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repos.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if seed {
				if err := repos.Seed(cmd.Context(), db); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.DBDSN)
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "also load the demo catalogue and users")
	return cmd
}
