package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
	"github.com/spec-kit/recruitment-office/internal/persistence"
)

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("POSTGRES_DSN is required")
			}
			return persistence.MigrateUp(cfg.Postgres.DSN, logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load()
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("POSTGRES_DSN is required")
			}
			return persistence.MigrateDown(cfg.Postgres.DSN, steps, logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(down)

	return migrateCmd
}

func newSeedCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install permissions, default job titles and the bootstrap administrator",
		Long: `Seed writes the permission catalog and creates any missing default job titles.
When AUTH_BOOTSTRAP_ADMIN_EMAIL and AUTH_BOOTSTRAP_ADMIN_PASSWORD are set and no
user exists yet, an administrator account is created as well. Safe to re-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				if err := c.Seed(ctx); err != nil {
					return err
				}
				cmd.Println("catalog seeded")
				return nil
			})
		},
	}
}
