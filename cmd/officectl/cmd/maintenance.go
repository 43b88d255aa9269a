package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
)

func newArchiveCommand(flags *globalFlags) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive maintenance",
	}
	archiveCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Archive contracts closed longer than ARCHIVE_AFTER_DAYS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				n, err := c.Archive.Sweep(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("archived %d contract(s)\n", n)
				return nil
			})
		},
	})
	return archiveCmd
}

func newContractsCommand(flags *globalFlags) *cobra.Command {
	contractsCmd := &cobra.Command{
		Use:   "contracts",
		Short: "Contract maintenance",
	}
	contractsCmd.AddCommand(&cobra.Command{
		Use:   "expire",
		Short: "Expire active contracts whose end date has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				n, err := c.Contracts.ExpireDue(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("expired %d contract(s)\n", n)
				return nil
			})
		},
	})
	return contractsCmd
}
