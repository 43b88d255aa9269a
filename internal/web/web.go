// Package web serves the server-rendered back-office pages. Pages share the
// API's session token through a cookie and the same permission checks.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"login", "dashboard", "workers", "contracts", "forbidden"}

// Dependencies wires the pages to the services.
type Dependencies struct {
	Office       string
	CookieName   string
	SecureCookie bool
	Auth         *service.AuthService
	Middleware   *auth.AuthMiddleware
	LoginLimiter *auth.LoginLimiter
	Workers      *service.WorkerService
	Contracts    *service.ContractService
	Dashboard    *service.DashboardService
	Logger       *zap.Logger
}

// Server renders the pages.
type Server struct {
	deps  Dependencies
	pages map[string]*template.Template
}

type page struct {
	Title     string
	Office    string
	Principal *auth.Principal
	Error     string
	Query     string
	Status    string
	Statuses  any
	Data      any
}

// New parses the embedded templates.
func New(deps Dependencies) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.CookieName == "" {
		deps.CookieName = "session"
	}
	funcs := template.FuncMap{
		"money": func(m domain.Money) string { return m.String() },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(domain.DateLayout)
		},
	}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}
	return &Server{deps: deps, pages: pages}, nil
}

// Register mounts the pages on the router.
func (s *Server) Register(r fiber.Router) {
	r.Get("/", s.loginPage)
	login := []fiber.Handler{s.login}
	if s.deps.LoginLimiter != nil {
		login = append([]fiber.Handler{s.limitLogin}, login...)
	}
	r.Post("/login", login...)
	r.Post("/logout", s.logout)
	r.Get("/dashboard", s.require(domain.PermDashboard), s.dashboardPage)
	r.Get("/workers", s.require(domain.PermWorkersRead), s.workersPage)
	r.Get("/contracts", s.require(domain.PermContractsRead), s.contractsPage)
}

func (s *Server) render(c *fiber.Ctx, status int, name string, p page) error {
	p.Office = s.deps.Office
	if p.Principal == nil {
		p.Principal, _ = auth.PrincipalFromContext(c)
	}
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.deps.Logger.Error("template render failed", zap.String("page", name), zap.Error(err))
		return c.Status(http.StatusInternalServerError).SendString("template render failed")
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func redirectWithError(c *fiber.Ctx, msg string) error {
	return c.Redirect("/?error="+url.QueryEscape(msg), http.StatusFound)
}

// require authenticates the session cookie and checks permissions; failures
// send the browser back to the login page instead of a JSON error.
func (s *Server) require(perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := s.deps.Middleware.Authenticate(c)
		if err != nil {
			return redirectWithError(c, "Session expired, please sign in again")
		}
		auth.SetPrincipal(c, principal)
		if !principal.Can(perms...) {
			return s.render(c, http.StatusForbidden, "forbidden", page{Title: "Access denied"})
		}
		return c.Next()
	}
}

func (s *Server) loginPage(c *fiber.Ctx) error {
	if _, err := s.deps.Middleware.Authenticate(c); err == nil {
		return c.Redirect("/dashboard", http.StatusFound)
	}
	return s.render(c, http.StatusOK, "login", page{Title: "Sign in", Error: c.Query("error")})
}

func (s *Server) limitLogin(c *fiber.Ctx) error {
	if !s.deps.LoginLimiter.Allow(c.IP()) {
		return redirectWithError(c, "Too many attempts, try again later")
	}
	return c.Next()
}

func (s *Server) login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return redirectWithError(c, "Email and password are required")
	}
	result, err := s.deps.Auth.Login(c.UserContext(), email, password)
	if err != nil {
		if de := apperrors.ToDomainError(err); de.HTTPStatus >= 500 {
			s.deps.Logger.Error("web login failed", zap.Error(err))
			return redirectWithError(c, "Sign in is unavailable right now")
		}
		return redirectWithError(c, "Invalid credentials")
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.deps.CookieName,
		Value:    result.Token.Token,
		Path:     "/",
		Expires:  result.Token.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.deps.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/dashboard", http.StatusFound)
}

func (s *Server) logout(c *fiber.Ctx) error {
	if principal, err := s.deps.Middleware.Authenticate(c); err == nil {
		if err := s.deps.Auth.Logout(c.UserContext(), principal); err != nil {
			s.deps.Logger.Warn("web logout failed", zap.Error(err))
		}
	}
	c.ClearCookie(s.deps.CookieName)
	return c.Redirect("/", http.StatusFound)
}

func (s *Server) dashboardPage(c *fiber.Ctx) error {
	d, err := s.deps.Dashboard.Get(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, http.StatusOK, "dashboard", page{Title: "Dashboard", Data: d})
}

func queryPtr(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func (s *Server) workersPage(c *fiber.Ctx) error {
	p := page{
		Title:  "Workers",
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Statuses: []domain.WorkerStatus{
			domain.WorkerStatusAvailable, domain.WorkerStatusContracted,
			domain.WorkerStatusUnavailable, domain.WorkerStatusAbsconded,
		},
	}
	filter := repository.WorkerFilter{Search: queryPtr(c, "q")}
	if p.Status != "" {
		filter.Statuses = []domain.WorkerStatus{domain.WorkerStatus(p.Status)}
	}
	list, err := s.deps.Workers.List(c.UserContext(), filter)
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= 500 {
			return err
		}
		p.Error = de.Message
	}
	p.Data = list
	return s.render(c, http.StatusOK, "workers", p)
}

func (s *Server) contractsPage(c *fiber.Ctx) error {
	p := page{
		Title:  "Contracts",
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Statuses: []domain.ContractStatus{
			domain.ContractStatusPending, domain.ContractStatusActive, domain.ContractStatusExpired,
			domain.ContractStatusTerminated, domain.ContractStatusCancelled,
		},
	}
	filter := repository.ContractFilter{Search: queryPtr(c, "q")}
	if p.Status != "" {
		filter.Statuses = []domain.ContractStatus{domain.ContractStatus(p.Status)}
	}
	list, err := s.deps.Contracts.List(c.UserContext(), filter)
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= 500 {
			return err
		}
		p.Error = de.Message
	}
	p.Data = list
	return s.render(c, http.StatusOK, "contracts", p)
}
