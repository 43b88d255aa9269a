package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
)

// checkedTables are counted by check-db, in display order.
var checkedTables = []string{
	"users", "job_titles", "nationalities", "workers", "clients", "marketers",
	"contracts", "contract_history", "payroll_entries", "archived_workers", "archived_contracts",
}

func countRows(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	var n int64
	// table names come from checkedTables, never from input
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

func newCheckDBCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Check connectivity, row counts and archive consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				if err := c.Postgres.Ping(ctx); err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
				cmd.Println("postgres: ok")
				if err := c.Redis.Ping(ctx); err != nil {
					cmd.Printf("redis: %v\n", err)
				} else {
					cmd.Println("redis: ok")
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TABLE\tROWS")
				for _, table := range checkedTables {
					n, err := countRows(ctx, c.Postgres.Pool, table)
					if err != nil {
						return fmt.Errorf("count %s: %w", table, err)
					}
					fmt.Fprintf(tw, "%s\t%d\n", table, n)
				}
				if err := tw.Flush(); err != nil {
					return err
				}

				dups, err := c.Archive.Duplicates(ctx)
				if err != nil {
					return err
				}
				if len(dups) == 0 {
					cmd.Println("archive: no duplicates")
					return nil
				}
				for _, d := range dups {
					cmd.Printf("archive duplicate: %s %s archived %d time(s), live=%t\n",
						d.Kind, d.OriginalID, len(d.ArchiveIDs), d.LiveExists)
				}
				return fmt.Errorf("%d archive duplicates found; run the purge endpoint or restore them", len(dups))
			})
		},
	}
}
