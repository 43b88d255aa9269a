package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/recruitment-office/internal/domain"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User      *domain.User
	JobTitle  *domain.JobTitle
	TokenID   string
	ExpiresAt time.Time
}

// Can reports whether the caller holds every permission in perms.
func (p *Principal) Can(perms ...domain.Permission) bool {
	if p == nil {
		return false
	}
	for _, perm := range perms {
		if !p.JobTitle.Has(perm) {
			return false
		}
	}
	return true
}

// UserID returns the caller's id, or nil when unauthenticated.
func (p *Principal) UserID() *string {
	if p == nil || p.User == nil {
		return nil
	}
	id := p.User.ID
	return &id
}

// UserLoader loads accounts for authenticated requests.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// JobTitleLoader loads job titles with their permissions.
type JobTitleLoader interface {
	GetByID(ctx context.Context, id string) (*domain.JobTitle, error)
}

// AuthMiddleware validates bearer tokens or session cookies and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	users      UserLoader
	titles     JobTitleLoader
	revoker    Revoker
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLoader, titles JobTitleLoader, revoker Revoker, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, titles: titles, revoker: revoker, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.Authenticate(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Authenticate resolves the caller without touching the handler chain.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) (*Principal, error) {
	raw, err := m.extractToken(c)
	if err != nil {
		return nil, err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if revoked {
			return nil, apperrors.NewUnauthorized("token revoked")
		}
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.Active {
		return nil, apperrors.NewUnauthorized("account is deactivated")
	}

	title, err := m.titles.GetByID(ctx, user.JobTitleID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	principal := &Principal{User: user, JobTitle: title, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if m.cookieName != "" {
		if cookie := c.Cookies(m.cookieName); cookie != "" {
			return cookie, nil
		}
	}
	return "", apperrors.NewUnauthorized("missing authorization header")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// SetPrincipal stores principal on the request.
func SetPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}

// RequirePermission allows the request only when the caller holds every listed permission.
func RequirePermission(perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.Can(perms...) {
			return apperrors.NewForbidden("missing permission")
		}
		return c.Next()
	}
}

// RequireAnyPermission allows the request when the caller holds at least one listed permission.
func RequireAnyPermission(perms ...domain.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		for _, perm := range perms {
			if principal.Can(perm) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("missing permission")
	}
}
