package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recruitment-office/internal/domain"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

type stubTitles map[string]*domain.JobTitle

func (s stubTitles) GetByID(_ context.Context, id string) (*domain.JobTitle, error) {
	if t, ok := s[id]; ok {
		return t, nil
	}
	return nil, pgx.ErrNoRows
}

type memRevoker map[string]bool

func (m memRevoker) Revoke(_ context.Context, id string, _ time.Duration) error {
	m[id] = true
	return nil
}

func (m memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	return m[id], nil
}

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, memRevoker) {
	t.Helper()
	tokens := NewTokenManager("test-secret", 10)
	users := stubUsers{
		"officer":  {ID: "officer", JobTitleID: "jt-officer", Active: true},
		"disabled": {ID: "disabled", JobTitleID: "jt-officer", Active: false},
		"admin":    {ID: "admin", JobTitleID: "jt-admin", Active: true},
	}
	titles := stubTitles{
		"jt-officer": {ID: "jt-officer", Permissions: []domain.Permission{domain.PermWorkersRead}},
		"jt-admin":   {ID: "jt-admin", Permissions: []domain.Permission{domain.PermissionAll}},
	}
	revoker := memRevoker{}
	mw := NewAuthMiddleware(tokens, users, titles, revoker, "session")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/workers", mw.Handle, RequirePermission(domain.PermWorkersRead), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/backups", mw.Handle, RequirePermission(domain.PermBackupsManage), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, tokens, revoker
}

func doRequest(t *testing.T, app *fiber.App, path string, mutate func(*http.Request)) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthMiddlewarePermissions(t *testing.T) {
	app, tokens, _ := newTestApp(t)

	officer, err := tokens.GenerateToken("officer", "jt-officer")
	require.NoError(t, err)
	admin, err := tokens.GenerateToken("admin", "jt-admin")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, "/workers", nil))
	assert.Equal(t, http.StatusOK, doRequest(t, app, "/workers", bearer(officer.Token)))
	assert.Equal(t, http.StatusForbidden, doRequest(t, app, "/backups", bearer(officer.Token)))
	assert.Equal(t, http.StatusOK, doRequest(t, app, "/backups", bearer(admin.Token)))
}

func TestAuthMiddlewareCookieAndRevocation(t *testing.T) {
	app, tokens, revoker := newTestApp(t)

	issued, err := tokens.GenerateToken("officer", "jt-officer")
	require.NoError(t, err)
	withCookie := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: issued.Token}) }

	assert.Equal(t, http.StatusOK, doRequest(t, app, "/workers", withCookie))

	require.NoError(t, revoker.Revoke(context.Background(), issued.ID, time.Minute))
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, "/workers", withCookie))
}

func TestAuthMiddlewareRejectsInactiveAndUnknownUsers(t *testing.T) {
	app, tokens, _ := newTestApp(t)

	disabled, err := tokens.GenerateToken("disabled", "jt-officer")
	require.NoError(t, err)
	ghost, err := tokens.GenerateToken("ghost", "jt-officer")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, "/workers", bearer(disabled.Token)))
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, "/workers", bearer(ghost.Token)))
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, "/workers", func(r *http.Request) {
		r.Header.Set("Authorization", "Basic abc")
	}))
}
