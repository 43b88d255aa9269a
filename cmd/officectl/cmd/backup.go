package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/recruitment-office/internal/app"
	"github.com/spec-kit/recruitment-office/internal/backup"
	"github.com/spec-kit/recruitment-office/internal/service"
)

func withBackups(flags *globalFlags, cmd *cobra.Command, fn func(ctx context.Context, b *service.BackupService) error) error {
	return flags.withContainer(cmd, func(ctx context.Context, c *app.Container) error {
		if c.Backups == nil {
			return errors.New("BACKUP_DIR is not configured")
		}
		return fn(ctx, c.Backups)
	})
}

func newBackupCommand(flags *globalFlags) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Backups are gzip-compressed pg_dump files kept in BACKUP_DIR with a
.meta.json sidecar. pg_dump and psql must be on PATH.`,
	}

	backupCmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Take a backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(flags, cmd, func(ctx context.Context, svc *service.BackupService) error {
				b, err := svc.Create(ctx, nil, backup.TriggerCLI)
				if err != nil {
					return err
				}
				cmd.Printf("created %s (%d bytes)\n", b.Name, b.SizeBytes)
				return nil
			})
		},
	})

	backupCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(flags, cmd, func(_ context.Context, svc *service.BackupService) error {
				list, err := svc.List()
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tCREATED\tTRIGGER\tEXPIRES")
				for _, b := range list {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", b.Name, b.SizeBytes,
						b.Metadata.CreatedAt.Format(time.RFC3339), b.Metadata.Trigger,
						b.Metadata.ExpiresAt.Format(time.DateOnly))
				}
				return tw.Flush()
			})
		},
	})

	var yes bool
	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore a backup over the current database",
		Long: `Restore replaces the current database contents with the named backup.
A safety backup of the current state is taken first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("restore overwrites the database; pass --yes to confirm")
			}
			return withBackups(flags, cmd, func(ctx context.Context, svc *service.BackupService) error {
				safety, err := svc.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("restored %s (safety backup %s)\n", args[0], safety.Name)
				return nil
			})
		},
	}
	restore.Flags().BoolVar(&yes, "yes", false, "confirm the restore")
	backupCmd.AddCommand(restore)

	var dryRun bool
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups past their retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(flags, cmd, func(_ context.Context, svc *service.BackupService) error {
				removed, err := svc.Cleanup(dryRun)
				if err != nil {
					return err
				}
				verb := "removed"
				if dryRun {
					verb = "would remove"
				}
				for _, b := range removed {
					cmd.Printf("%s %s\n", verb, b.Name)
				}
				cmd.Printf("%s %d backup(s)\n", verb, len(removed))
				return nil
			})
		},
	}
	cleanup.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would be removed")
	backupCmd.AddCommand(cleanup)

	return backupCmd
}
