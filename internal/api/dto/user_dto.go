package dto

import (
	"time"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes a reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	JobTitleID string `json:"job_title_id" validate:"required"`
	Active     *bool  `json:"active"`
}

// UpdateUserRequest carries optional changes.
type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=120"`
	Email      *string `json:"email" validate:"omitempty,email"`
	JobTitleID *string `json:"job_title_id"`
	Active     *bool   `json:"active"`
}

// SetPasswordRequest lets an administrator replace a password.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// JobTitleRequest payload.
type JobTitleRequest struct {
	Name        string              `json:"name" validate:"required,max=80"`
	Description string              `json:"description" validate:"max=500"`
	Permissions []domain.Permission `json:"permissions"`
}

// UserResponse hides the password hash.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	JobTitleID string    `json:"job_title_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobTitleResponse describes a job title.
type JobTitleResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Permissions []domain.Permission `json:"permissions"`
	IsSystem    bool                `json:"is_system"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		JobTitleID: u.JobTitleID,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NewJobTitleResponse maps a job title.
func NewJobTitleResponse(j *domain.JobTitle) JobTitleResponse {
	perms := j.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	return JobTitleResponse{ID: j.ID, Name: j.Name, Description: j.Description, Permissions: perms, IsSystem: j.IsSystem}
}

// MapSlice converts a slice of domain values with fn.
func MapSlice[T, R any](in []T, fn func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}
