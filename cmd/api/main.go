package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/recruitment-office/internal/api/http"
	"github.com/spec-kit/recruitment-office/internal/api/http/handlers"
	"github.com/spec-kit/recruitment-office/internal/app"
	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/observability"
	"github.com/spec-kit/recruitment-office/internal/persistence"
	"github.com/spec-kit/recruitment-office/internal/web"
	"github.com/spec-kit/recruitment-office/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	if cfg.Postgres.RunMigrations && cfg.Postgres.DSN != "" {
		if err := persistence.MigrateUp(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	container, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	if err := container.Seed(ctx); err != nil {
		logger.Fatal("failed to seed catalog", zap.Error(err))
	}

	var scheduler *worker.Scheduler
	if cfg.Jobs.Enabled {
		if err := worker.Migrate(ctx, container.Postgres.Pool); err != nil {
			logger.Fatal("failed to migrate job queue", zap.Error(err))
		}
		scheduler, err = worker.NewScheduler(container.Postgres.Pool, container.JobDependencies(), cfg.Jobs, worker.ScheduleFromConfig(cfg))
		if err != nil {
			logger.Fatal("failed to build job scheduler", zap.Error(err))
		}
		if err := scheduler.Start(ctx); err != nil {
			logger.Fatal("failed to start job scheduler", zap.Error(err))
		}
	}

	authMiddleware := auth.NewAuthMiddleware(container.Tokens, container.Repos.Users, container.Repos.JobTitles,
		container.Revoker, cfg.Auth.SessionCookieName)
	loginLimiter := auth.NewLoginLimiter(cfg.RateLimit.LoginBurst, time.Duration(cfg.RateLimit.LoginRefillSeconds)*time.Second)

	server := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 20 << 20,
	})
	httptransport.RegisterMiddlewares(server, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": container.Postgres,
			"redis":    container.Redis,
		}),
		Auth:           handlers.NewAuthHandler(container.Auth, container.Users),
		Users:          handlers.NewUsersHandler(container.Users),
		Nationalities:  handlers.NewNationalitiesHandler(container.Nationalities),
		Workers:        handlers.NewWorkersHandler(container.Workers, container.Documents),
		Clients:        handlers.NewClientsHandler(container.Clients),
		Marketers:      handlers.NewMarketersHandler(container.Marketers),
		Contracts:      handlers.NewContractsHandler(container.Contracts, container.Documents),
		Payroll:        handlers.NewPayrollHandler(container.Payroll),
		Archive:        handlers.NewArchiveHandler(container.Archive),
		Dashboard:      handlers.NewDashboardHandler(container.Dashboard),
		AuthMiddleware: authMiddleware,
		LoginLimiter:   loginLimiter,
		Metrics:        metrics,
	}
	if container.Backups != nil {
		routes.Backups = handlers.NewBackupsHandler(container.Backups)
	}
	httptransport.RegisterRoutes(server, routes)

	pages, err := web.New(web.Dependencies{
		Office:       cfg.Documents.AgencyName,
		CookieName:   cfg.Auth.SessionCookieName,
		SecureCookie: cfg.IsProduction(),
		Auth:         container.Auth,
		Middleware:   authMiddleware,
		LoginLimiter: loginLimiter,
		Workers:      container.Workers,
		Contracts:    container.Contracts,
		Dashboard:    container.Dashboard,
		Logger:       logger.Named("web"),
	})
	if err != nil {
		logger.Fatal("failed to load web templates", zap.Error(err))
	}
	pages.Register(server)

	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
		defer stop()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Warn("job scheduler shutdown", zap.Error(err))
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
