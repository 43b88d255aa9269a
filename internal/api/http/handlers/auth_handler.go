package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/service"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// AuthHandler exposes login, logout and password endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"user":      dto.NewUserResponse(result.User),
		"job_title": dto.NewJobTitleResponse(result.JobTitle),
		"auth":      dto.AuthResponse{Token: result.Token.Token, ExpiresAt: result.Token.ExpiresAt},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.auth.Logout(c.UserContext(), principal); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	return data(c, http.StatusOK, fiber.Map{
		"user":      dto.NewUserResponse(principal.User),
		"job_title": dto.NewJobTitleResponse(principal.JobTitle),
	})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	principal, found := auth.PrincipalFromContext(c)
	if !found {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return ok(c, fiber.Map{"status": "password_changed"})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The response
// is the same whether or not the address belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return data(c, http.StatusAccepted, fiber.Map{"status": "reset_requested"})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return ok(c, fiber.Map{"status": "password_reset"})
}
