package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
)

func newWorkerCommand(flags *globalFlags) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Bulk worker operations",
	}
	workerCmd.AddCommand(&cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import workers from a spreadsheet",
		Long: `Import reads the first sheet of an xlsx workbook. The header row must contain
"Full Name", "Nationality" and "Residency Number"; other columns are optional.
Rows whose residency number already exists are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				result, err := c.Workers.Import(ctx, f)
				if err != nil {
					return err
				}
				cmd.Printf("created %d, skipped %d\n", result.Created, result.Skipped)
				for _, rowErr := range result.Errors {
					cmd.PrintErrf("row %d: %s\n", rowErr.Row, rowErr.Message)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d rows could not be imported", len(result.Errors))
				}
				return nil
			})
		},
	})
	return workerCmd
}
