package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pg "github.com/jeonjuho23/claude-daily/internal/infra/db/postgres"
)

func migrateCMD(flags *rootFlags) *cobra.Command {
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(flags)
			if err != nil {
				return err
			}
			return pg.MigrateUp(cfg.Database.URL, logger)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(flags)
			if err != nil {
				return err
			}
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return pg.MigrateDown(cfg.Database.URL, steps, logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	migrate.AddCommand(up, down)
	return migrate
}
