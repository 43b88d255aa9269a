package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/recruitment-office/internal/api/http/handlers"
	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Nationalities  *handlers.NationalitiesHandler
	Workers        *handlers.WorkersHandler
	Clients        *handlers.ClientsHandler
	Marketers      *handlers.MarketersHandler
	Contracts      *handlers.ContractsHandler
	Payroll        *handlers.PayrollHandler
	Archive        *handlers.ArchiveHandler
	Backups        *handlers.BackupsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *auth.LoginLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter.Middleware()}, login...)
	}
	authGroup.Post("/login", login...)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	// Registered after the public auth routes so those match first.
	api := v1.Group("", cfg.AuthMiddleware.Handle)
	api.Post("/auth/logout", cfg.Auth.Logout)
	api.Get("/auth/me", cfg.Auth.Me)
	api.Post("/auth/password/change", cfg.Auth.ChangePassword)

	registerAdminRoutes(api, cfg)
	registerStaffingRoutes(api, cfg)
	registerContractRoutes(api, cfg)
	registerOfficeRoutes(api, cfg)
}

func registerAdminRoutes(api fiber.Router, cfg RouteConfig) {
	manage := auth.RequirePermission(domain.PermUsersManage)

	users := api.Group("/users", manage)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
	users.Put("/:id/password", cfg.Users.SetPassword)
	users.Delete("/:id", cfg.Users.Delete)

	titles := api.Group("/job-titles", manage)
	titles.Get("/", cfg.Users.ListJobTitles)
	titles.Post("/", cfg.Users.CreateJobTitle)
	titles.Get("/:id", cfg.Users.GetJobTitle)
	titles.Put("/:id", cfg.Users.UpdateJobTitle)
	titles.Delete("/:id", cfg.Users.DeleteJobTitle)

	api.Get("/permissions", manage, cfg.Users.Permissions)

	settings := auth.RequirePermission(domain.PermSettingsManage)
	api.Get("/nationalities", cfg.Nationalities.List)
	api.Put("/nationalities/:code", settings, cfg.Nationalities.Put)
	api.Delete("/nationalities/:code", settings, cfg.Nationalities.Delete)
}

func registerStaffingRoutes(api fiber.Router, cfg RouteConfig) {
	read := auth.RequirePermission(domain.PermWorkersRead)
	write := auth.RequirePermission(domain.PermWorkersWrite)
	docs := auth.RequirePermission(domain.PermWorkersRead, domain.PermDocuments)

	workers := api.Group("/workers")
	workers.Get("/", read, cfg.Workers.List)
	workers.Post("/", write, cfg.Workers.Create)
	workers.Post("/import", write, cfg.Workers.Import)
	workers.Get("/export", read, cfg.Workers.Export)
	workers.Get("/:id", read, cfg.Workers.Get)
	workers.Patch("/:id", write, cfg.Workers.Update)
	workers.Put("/:id/status", write, cfg.Workers.SetStatus)
	workers.Delete("/:id", write, cfg.Workers.Delete)
	workers.Get("/:id/profile.pdf", docs, cfg.Workers.Profile)

	clientsRead := auth.RequirePermission(domain.PermClientsRead)
	clientsWrite := auth.RequirePermission(domain.PermClientsWrite)
	clients := api.Group("/clients")
	clients.Get("/", clientsRead, cfg.Clients.List)
	clients.Post("/", clientsWrite, cfg.Clients.Create)
	clients.Get("/:id", clientsRead, cfg.Clients.Get)
	clients.Patch("/:id", clientsWrite, cfg.Clients.Update)
	clients.Delete("/:id", clientsWrite, cfg.Clients.Delete)

	marketersRead := auth.RequirePermission(domain.PermMarketersRead)
	marketersWrite := auth.RequirePermission(domain.PermMarketersWrite)
	marketers := api.Group("/marketers")
	marketers.Get("/", marketersRead, cfg.Marketers.List)
	marketers.Post("/", marketersWrite, cfg.Marketers.Create)
	marketers.Get("/:id", marketersRead, cfg.Marketers.Get)
	marketers.Get("/:id/commissions", marketersRead, cfg.Marketers.Commissions)
	marketers.Patch("/:id", marketersWrite, cfg.Marketers.Update)
	marketers.Delete("/:id", marketersWrite, cfg.Marketers.Delete)
}

func registerContractRoutes(api fiber.Router, cfg RouteConfig) {
	read := auth.RequirePermission(domain.PermContractsRead)
	write := auth.RequirePermission(domain.PermContractsWrite)
	manage := auth.RequirePermission(domain.PermContractsManage)
	docs := auth.RequirePermission(domain.PermContractsRead, domain.PermDocuments)

	contracts := api.Group("/contracts")
	contracts.Get("/", read, cfg.Contracts.List)
	contracts.Post("/", write, cfg.Contracts.Create)
	contracts.Get("/expiring", read, cfg.Contracts.Expiring)
	contracts.Get("/:id", read, cfg.Contracts.Get)
	contracts.Patch("/:id", write, cfg.Contracts.Update)
	contracts.Post("/:id/activate", manage, cfg.Contracts.Activate)
	contracts.Post("/:id/cancel", manage, cfg.Contracts.Cancel)
	contracts.Post("/:id/terminate", manage, cfg.Contracts.Terminate)
	contracts.Post("/:id/renew", write, cfg.Contracts.Renew)
	contracts.Get("/:id/settlement", read, cfg.Contracts.Settlement)
	contracts.Get("/:id/history", read, cfg.Contracts.History)
	contracts.Get("/:id/document.docx", docs, cfg.Contracts.DocumentDOCX)
	contracts.Get("/:id/document.pdf", docs, cfg.Contracts.DocumentPDF)
	contracts.Get("/:id/settlement.pdf", docs, cfg.Contracts.SettlementPDF)
}

func registerOfficeRoutes(api fiber.Router, cfg RouteConfig) {
	payRead := auth.RequirePermission(domain.PermPayrollRead)
	payWrite := auth.RequirePermission(domain.PermPayrollWrite)
	payroll := api.Group("/payroll")
	payroll.Post("/generate", payWrite, cfg.Payroll.Generate)
	payroll.Patch("/entries/:id", payWrite, cfg.Payroll.Adjust)
	payroll.Post("/entries/:id/pay", payWrite, cfg.Payroll.Pay)
	payroll.Get("/:period", payRead, cfg.Payroll.List)
	payroll.Get("/:period/export", payRead, cfg.Payroll.Export)

	archive := api.Group("/archive", auth.RequirePermission(domain.PermArchiveManage))
	archive.Get("/contracts", cfg.Archive.ListContracts)
	archive.Get("/workers", cfg.Archive.ListWorkers)
	archive.Get("/duplicates", cfg.Archive.Duplicates)
	archive.Post("/duplicates/purge", cfg.Archive.PurgeDuplicates)
	archive.Get("/contracts/:archiveId", cfg.Archive.GetContract)
	archive.Get("/workers/:archiveId", cfg.Archive.GetWorker)
	archive.Post("/contracts/:archiveId/restore", cfg.Archive.RestoreContract)
	archive.Post("/workers/:archiveId/restore", cfg.Archive.RestoreWorker)
	archive.Post("/contracts/:id", cfg.Archive.ArchiveContract)
	archive.Post("/workers/:id", cfg.Archive.ArchiveWorker)

	if cfg.Backups != nil {
		backups := api.Group("/backups", auth.RequirePermission(domain.PermBackupsManage))
		backups.Get("/", cfg.Backups.List)
		backups.Post("/", cfg.Backups.Create)
		backups.Post("/cleanup", cfg.Backups.Cleanup)
		backups.Get("/:name", cfg.Backups.Download)
		backups.Post("/:name/restore", cfg.Backups.Restore)
		backups.Delete("/:name", cfg.Backups.Delete)
	}

	api.Get("/dashboard", auth.RequirePermission(domain.PermDashboard), cfg.Dashboard.Get)
}
