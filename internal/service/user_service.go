package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/catalog"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// UserService manages staff accounts and job titles.
type UserService struct {
	users      repository.UserRepository
	titles     repository.JobTitleRepository
	tx         repository.Transactor
	catalog    *catalog.Catalog
	bcryptCost int
	logger     *zap.Logger
}

// UserDependencies bundles repositories for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	JobTitleRepo repository.JobTitleRepository
	Tx           repository.Transactor
	Catalog      *catalog.Catalog
	BcryptCost   int
	Logger       *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		titles:     deps.JobTitleRepo,
		tx:         deps.Tx,
		catalog:    deps.Catalog,
		bcryptCost: deps.BcryptCost,
		logger:     orNop(deps.Logger),
	}
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	JobTitleID string
	Active     bool
}

// UpdateUserInput holds optional changes to an account.
type UpdateUserInput struct {
	Name       *string
	Email      *string
	JobTitleID *string
	Active     *bool
}

// JobTitleInput describes a job title and its permission grants.
type JobTitleInput struct {
	Name        string
	Description string
	Permissions []domain.Permission
}

// CreateUser adds an account.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name := sanitize.Text(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if err := auth.CheckPasswordPolicy(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if _, err := s.titles.GetByID(ctx, input.JobTitleID); err != nil {
		return nil, apperrors.NotFoundOr(err, "job title", map[string]any{"id": input.JobTitleID})
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		JobTitleID:   input.JobTitleID,
		Active:       input.Active,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("job_title_id", user.JobTitleID))
	return user, nil
}

// GetUser fetches an account.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"id": id})
	}
	return user, nil
}

// GetUserByEmail fetches an account by email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "user", map[string]any{"email": email})
	}
	return user, nil
}

// Me returns the account and job title of userID.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, *domain.JobTitle, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	title, err := s.GetJobTitle(ctx, user.JobTitleID)
	if err != nil {
		return nil, nil, err
	}
	return user, title, nil
}

// ListUsers returns accounts matching filter.
func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	users, err := s.users.List(ctx, filter)
	return users, apperrors.MapError(err)
}

// UpdateUser applies changes, refusing to leave the office without an active administrator.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	var updated *domain.User
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return apperrors.NotFoundOr(err, "user", map[string]any{"id": id})
		}
		wasAdmin, err := s.isActiveAdmin(ctx, user)
		if err != nil {
			return err
		}

		if input.Name != nil {
			if name := sanitize.Text(*input.Name); name != "" {
				user.Name = name
			}
		}
		if input.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*input.Email))
			if email == "" {
				return apperrors.NewValidationError("email cannot be empty", nil)
			}
			if email != user.Email {
				if _, err := s.users.GetByEmail(ctx, email); err == nil {
					return apperrors.NewConflict("email already registered", map[string]any{"email": email})
				} else if !errors.Is(err, pgx.ErrNoRows) {
					return apperrors.MapError(err)
				}
			}
			user.Email = email
		}
		if input.JobTitleID != nil {
			if _, err := s.titles.GetByID(ctx, *input.JobTitleID); err != nil {
				return apperrors.NotFoundOr(err, "job title", map[string]any{"id": *input.JobTitleID})
			}
			user.JobTitleID = *input.JobTitleID
		}
		if input.Active != nil {
			user.Active = *input.Active
		}

		stillAdmin, err := s.isActiveAdmin(ctx, user)
		if err != nil {
			return err
		}
		if wasAdmin && !stillAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return err
			}
		}
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	return s.UpdateUser(ctx, id, UpdateUserInput{Active: &active})
}

// SetPassword replaces a password without knowing the old one (administrative reset).
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	if err := auth.CheckPasswordPolicy(password); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	return apperrors.MapError(s.users.Update(ctx, user))
}

// DeleteUser removes an account other than the caller's own.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperrors.NewConflict("you cannot delete your own account", nil)
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return apperrors.NotFoundOr(err, "user", map[string]any{"id": id})
		}
		admin, err := s.isActiveAdmin(ctx, user)
		if err != nil {
			return err
		}
		if admin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return err
			}
		}
		return apperrors.MapError(s.users.Delete(ctx, id))
	})
}

func (s *UserService) isActiveAdmin(ctx context.Context, user *domain.User) (bool, error) {
	if !user.Active {
		return false, nil
	}
	title, err := s.titles.GetByID(ctx, user.JobTitleID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return title.IsAdministrator(), nil
}

// ensureAnotherAdmin fails when the user being changed is the only active administrator.
func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.users.CountActiveWithPermission(ctx, domain.PermissionAll)
	if err != nil {
		return apperrors.MapError(err)
	}
	if n <= 1 {
		return apperrors.NewConflict("at least one active administrator is required", nil)
	}
	return nil
}

// EnsureBootstrapAdmin creates the first administrator when the users table is empty.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if n > 0 {
		return nil, nil
	}
	admin, err := s.administratorTitle(ctx)
	if err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, CreateUserInput{
		Name:       "Administrator",
		Email:      email,
		Password:   password,
		JobTitleID: admin.ID,
		Active:     true,
	})
}

func (s *UserService) administratorTitle(ctx context.Context) (*domain.JobTitle, error) {
	titles, err := s.titles.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range titles {
		if titles[i].IsSystem && titles[i].IsAdministrator() {
			return &titles[i], nil
		}
	}
	return nil, apperrors.NewNotFound("administrator job title", map[string]any{"hint": "run the catalog seed first"})
}

// ListJobTitles returns all job titles with their permissions.
func (s *UserService) ListJobTitles(ctx context.Context) ([]domain.JobTitle, error) {
	titles, err := s.titles.List(ctx)
	return titles, apperrors.MapError(err)
}

// GetJobTitle fetches a job title.
func (s *UserService) GetJobTitle(ctx context.Context, id string) (*domain.JobTitle, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "job title", map[string]any{"id": id})
	}
	return title, nil
}

// ListPermissions returns the permission catalog.
func (s *UserService) ListPermissions() []domain.PermissionInfo {
	return s.catalog.Permissions
}

func (s *UserService) validateTitle(input JobTitleInput) (string, error) {
	name := sanitize.Text(input.Name)
	if name == "" {
		return "", apperrors.NewValidationError("name is required", nil)
	}
	if unknown := s.catalog.Unknown(input.Permissions); len(unknown) > 0 {
		return "", apperrors.NewValidationError("unknown permissions", map[string]any{"permissions": unknown})
	}
	return name, nil
}

// CreateJobTitle adds a job title.
func (s *UserService) CreateJobTitle(ctx context.Context, input JobTitleInput) (*domain.JobTitle, error) {
	name, err := s.validateTitle(input)
	if err != nil {
		return nil, err
	}
	title := &domain.JobTitle{
		Name:        name,
		Description: sanitize.Text(input.Description),
		Permissions: dedupePermissions(input.Permissions),
	}
	if err := s.titles.Create(ctx, title); err != nil {
		return nil, apperrors.MapError(err)
	}
	return title, nil
}

// UpdateJobTitle renames a job title and replaces its permissions. The system
// administrator title always keeps the wildcard permission.
func (s *UserService) UpdateJobTitle(ctx context.Context, id string, input JobTitleInput) (*domain.JobTitle, error) {
	name, err := s.validateTitle(input)
	if err != nil {
		return nil, err
	}
	title, err := s.GetJobTitle(ctx, id)
	if err != nil {
		return nil, err
	}
	perms := dedupePermissions(input.Permissions)
	if title.IsSystem && title.IsAdministrator() {
		updated := domain.JobTitle{Permissions: perms}
		if !updated.IsAdministrator() {
			return nil, apperrors.NewConflict("the administrator job title must keep every permission", nil)
		}
	}
	title.Name = name
	title.Description = sanitize.Text(input.Description)
	title.Permissions = perms
	if err := s.titles.Update(ctx, title); err != nil {
		return nil, apperrors.MapError(err)
	}
	return title, nil
}

// DeleteJobTitle removes an unused, non-system job title.
func (s *UserService) DeleteJobTitle(ctx context.Context, id string) error {
	title, err := s.GetJobTitle(ctx, id)
	if err != nil {
		return err
	}
	if title.IsSystem {
		return apperrors.NewConflict("system job titles cannot be deleted", map[string]any{"name": title.Name})
	}
	n, err := s.titles.CountUsers(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if n > 0 {
		return apperrors.NewConflict("job title is assigned to users", map[string]any{"users": n})
	}
	return apperrors.MapError(s.titles.Delete(ctx, id))
}

func dedupePermissions(perms []domain.Permission) []domain.Permission {
	seen := make(map[domain.Permission]struct{}, len(perms))
	out := make([]domain.Permission, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
