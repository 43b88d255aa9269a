// Package app assembles the office services from configuration. Both the
// HTTP server and officectl build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/backup"
	"github.com/spec-kit/recruitment-office/internal/catalog"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/documents"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/notify"
	"github.com/spec-kit/recruitment-office/internal/observability"
	"github.com/spec-kit/recruitment-office/internal/persistence"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
	"github.com/spec-kit/recruitment-office/internal/worker"
)

// Container holds the wired infrastructure and services.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Repos      *repository.Repositories
	Catalog    *catalog.Catalog
	Dispatcher events.Dispatcher
	Tokens     *auth.TokenManager
	Revoker    *auth.RedisRevoker

	Auth          *service.AuthService
	Users         *service.UserService
	Nationalities *service.NationalityService
	Workers       *service.WorkerService
	Clients       *service.ClientService
	Marketers     *service.MarketerService
	Contracts     *service.ContractService
	Payroll       *service.PayrollService
	Archive       *service.ArchiveService
	// Backups is nil when no backup directory is configured.
	Backups       *service.BackupService
	Documents     *service.DocumentService
	Dashboard     *service.DashboardService
	Notifications *service.NotificationService
}

// New connects to Postgres and Redis and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if pg.Pool == nil {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	cat, err := catalog.Load()
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("load permission catalog: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Postgres:   pg,
		Redis:      persistence.NewRedis(ctx, cfg.Redis, logger),
		Repos:      repository.New(pg.Pool),
		Catalog:    cat,
		Dispatcher: events.NewInMemoryDispatcher(),
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}
	c.Revoker = auth.NewRedisRevoker(c.Redis.Client)

	if err := c.buildServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) buildServices() error {
	cfg, repos, logger := c.Config, c.Repos, c.Logger

	renderer, err := notify.NewRenderer(cfg.Documents.AgencyName)
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	mailer := notify.NewMailer(cfg.Notification, logger)

	c.Auth = service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          repos.Users,
		JobTitleRepo:      repos.JobTitles,
		PasswordResetRepo: repos.PasswordResets,
		Tx:                repos.Tx,
		Tokens:            c.Tokens,
		Revoker:           c.Revoker,
		Mailer:            mailer,
		Renderer:          renderer,
		Logger:            logger.Named("auth"),
	})
	c.Users = service.NewUserService(service.UserDependencies{
		UserRepo:     repos.Users,
		JobTitleRepo: repos.JobTitles,
		Tx:           repos.Tx,
		Catalog:      c.Catalog,
		BcryptCost:   cfg.Auth.BcryptCost,
		Logger:       logger.Named("users"),
	})
	c.Nationalities = service.NewNationalityService(service.NationalityDependencies{
		Repo:     repos.Nationalities,
		Cache:    c.Redis,
		CacheTTL: cfg.Redis.SalaryCacheTTL,
		Logger:   logger.Named("nationalities"),
	})
	c.Workers = service.NewWorkerService(service.WorkerDependencies{
		WorkerRepo:    repos.Workers,
		ContractRepo:  repos.Contracts,
		Nationalities: c.Nationalities,
		Tx:            repos.Tx,
		Dispatcher:    c.Dispatcher,
		Logger:        logger.Named("workers"),
	})
	c.Clients = service.NewClientService(service.ClientDependencies{
		ClientRepo:   repos.Clients,
		ContractRepo: repos.Contracts,
		Tx:           repos.Tx,
		Logger:       logger.Named("clients"),
	})
	c.Marketers = service.NewMarketerService(service.MarketerDependencies{
		MarketerRepo: repos.Marketers,
		ContractRepo: repos.Contracts,
		UserRepo:     repos.Users,
		Tx:           repos.Tx,
		Logger:       logger.Named("marketers"),
	})
	c.Contracts = service.NewContractService(cfg.Contracts, service.ContractDependencies{
		ContractRepo: repos.Contracts,
		HistoryRepo:  repos.ContractHistory,
		WorkerRepo:   repos.Workers,
		ClientRepo:   repos.Clients,
		MarketerRepo: repos.Marketers,
		Tx:           repos.Tx,
		Dispatcher:   c.Dispatcher,
		Metrics:      c.Metrics,
		Logger:       logger.Named("contracts"),
	})
	c.Payroll = service.NewPayrollService(service.PayrollDependencies{
		PayrollRepo:  repos.Payroll,
		ContractRepo: repos.Contracts,
		WorkerRepo:   repos.Workers,
		Tx:           repos.Tx,
		Logger:       logger.Named("payroll"),
	})
	c.Archive = service.NewArchiveService(service.ArchiveDependencies{
		ArchiveRepo:      repos.Archive,
		ContractRepo:     repos.Contracts,
		HistoryRepo:      repos.ContractHistory,
		WorkerRepo:       repos.Workers,
		ClientRepo:       repos.Clients,
		MarketerRepo:     repos.Marketers,
		Tx:               repos.Tx,
		Dispatcher:       c.Dispatcher,
		ArchiveAfterDays: cfg.Contracts.ArchiveAfterDays,
		Logger:           logger.Named("archive"),
	})
	c.Documents = service.NewDocumentService(service.DocumentDependencies{
		Generator:    documents.NewGenerator(documents.LetterheadFromConfig(cfg.Documents), nil),
		Contracts:    c.Contracts,
		WorkerRepo:   repos.Workers,
		ClientRepo:   repos.Clients,
		MarketerRepo: repos.Marketers,
		ContractRepo: repos.Contracts,
		Metrics:      c.Metrics,
		Logger:       logger.Named("documents"),
	})
	c.Dashboard = service.NewDashboardService(service.DashboardDependencies{
		WorkerRepo:   repos.Workers,
		ContractRepo: repos.Contracts,
		Contracts:    c.Contracts,
		Payroll:      c.Payroll,
	})
	c.Notifications = service.NewNotificationService(c.Dispatcher, mailer, renderer, logger.Named("notifications"), cfg.Notification)
	c.Notifications.RegisterHandlers()

	if cfg.Backup.Dir != "" {
		conn, err := backup.ParseDSN(c.Postgres.DSN())
		if err != nil {
			return fmt.Errorf("backup connection: %w", err)
		}
		manager, err := backup.NewManager(backup.Options{
			Dir:           cfg.Backup.Dir,
			RetentionDays: cfg.Backup.RetentionDays,
			Conn:          conn,
		})
		if err != nil {
			return fmt.Errorf("backup manager: %w", err)
		}
		c.Backups = service.NewBackupService(service.BackupDependencies{
			Manager:    manager,
			Metrics:    c.Metrics,
			Dispatcher: c.Dispatcher,
			Logger:     logger.Named("backups"),
		})
	} else {
		logger.Warn("BACKUP_DIR not set; backups disabled")
	}
	return nil
}

// Seed installs the permission catalog and, on an empty users table, the
// bootstrap administrator from AUTH_BOOTSTRAP_ADMIN_*.
func (c *Container) Seed(ctx context.Context) error {
	if err := c.Catalog.Seed(ctx, c.Repos.JobTitles, c.Logger); err != nil {
		return err
	}
	email, password := c.Config.Auth.BootstrapAdminEmail, c.Config.Auth.BootstrapAdminPassword
	if email == "" || password == "" {
		return nil
	}
	user, err := c.Users.EnsureBootstrapAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if user != nil {
		c.Logger.Info("created bootstrap administrator", zap.String("email", user.Email))
	}
	return nil
}

// JobDependencies exposes the services the background jobs drive. Optional
// services stay nil interfaces when disabled.
func (c *Container) JobDependencies() worker.Dependencies {
	deps := worker.Dependencies{
		Contracts: c.Contracts,
		Archive:   c.Archive,
		Metrics:   c.Metrics,
		Logger:    c.Logger.Named("jobs"),
	}
	if c.Backups != nil {
		deps.Backups = c.Backups
	}
	return deps
}

// Close releases connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
