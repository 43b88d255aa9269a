package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/notify"
	"github.com/spec-kit/recruitment-office/internal/repository"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// AuthService coordinates login, logout and password flows.
type AuthService struct {
	users      repository.UserRepository
	titles     repository.JobTitleRepository
	resets     repository.PasswordResetRepository
	tx         repository.Transactor
	tokenMgr   *auth.TokenManager
	revoker    auth.Revoker
	mailer     notify.Mailer
	renderer   *notify.Renderer
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	clock      Clock
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	JobTitleRepo      repository.JobTitleRepository
	PasswordResetRepo repository.PasswordResetRepository
	Tx                repository.Transactor
	Tokens            *auth.TokenManager
	Revoker           auth.Revoker
	Mailer            notify.Mailer
	Renderer          *notify.Renderer
	Logger            *zap.Logger
	Clock             Clock
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User     *domain.User
	JobTitle *domain.JobTitle
	Token    *auth.IssuedToken
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		titles:     deps.JobTitleRepo,
		resets:     deps.PasswordResetRepo,
		tx:         deps.Tx,
		tokenMgr:   deps.Tokens,
		revoker:    deps.Revoker,
		mailer:     deps.Mailer,
		renderer:   deps.Renderer,
		logger:     orNop(deps.Logger),
		bcryptCost: cfg.BcryptCost,
		resetTTL:   time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		clock:      deps.Clock,
	}
}

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// Login authenticates a staff account and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errInvalidCredentials
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.NewForbidden("account is deactivated")
	}
	title, err := s.titles.GetByID(ctx, user.JobTitleID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	token, err := s.tokenMgr.GenerateToken(user.ID, user.JobTitleID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{User: user, JobTitle: title, Token: token}, nil
}

// Logout revokes the caller's token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) error {
	if principal == nil || s.revoker == nil {
		return nil
	}
	ttl := principal.ExpiresAt.Sub(s.clock.now())
	if err := s.revoker.Revoke(ctx, principal.TokenID, ttl); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return errInvalidCredentials
	}
	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.Update(ctx, user))
}

// RequestPasswordReset emails a single-use reset code. Unknown or inactive
// addresses succeed silently so the endpoint cannot be used to probe accounts.
// The raw code is returned for callers that deliver it out of band.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.MapError(err)
	}
	if !user.Active {
		return "", nil
	}

	raw, err := randomToken()
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     hashToken(raw),
		ExpiresAt: s.clock.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return "", apperrors.MapError(err)
	}

	if s.mailer != nil && s.renderer != nil {
		subject, body, err := s.renderer.PasswordReset(user.Name, raw, s.resetTTL)
		if err == nil {
			err = s.mailer.Send(ctx, []string{user.Email}, subject, body)
		}
		if err != nil {
			s.logger.Warn("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return raw, nil
}

// ConfirmPasswordReset validates the reset code and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	invalid := apperrors.NewValidationError("reset code is invalid or expired", nil)

	token, err := s.resets.GetByToken(ctx, hashToken(strings.TrimSpace(rawToken)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invalid
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || s.clock.now().After(token.ExpiresAt) {
		return invalid
	}
	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.NotFoundOr(err, "user", nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	// the code is only spent when the new password is stored
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return invalid
			}
			return apperrors.MapError(err)
		}
		user.PasswordHash = hash
		return apperrors.MapError(s.users.Update(ctx, user))
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func randomToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
