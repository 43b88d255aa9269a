// Package cmd implements officectl, the maintenance CLI for the office database.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/app"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/observability"
)

// Version is set through ldflags at build time.
var Version = "dev"

type globalFlags struct {
	logLevel string
}

// Execute runs officectl and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "officectl",
		Short: "Maintenance tool for the recruitment office back-office",
		Long: `officectl runs database maintenance for the recruitment office service.

Configuration comes from the same environment variables (or .env file) the
API server reads, so POSTGRES_DSN must point at the office database.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCommand(flags),
		newSeedCommand(flags),
		newUserCommand(flags),
		newWorkerCommand(flags),
		newCheckDBCommand(flags),
		newBackupCommand(flags),
		newArchiveCommand(flags),
		newContractsCommand(flags),
	)
	return root
}

func (f *globalFlags) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if f.logLevel != "" {
		cfg.Logger.Level = f.logLevel
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// withContainer builds the services for one command and tears them down after.
func (f *globalFlags) withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, logger, err := f.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(ctx, container)
}
