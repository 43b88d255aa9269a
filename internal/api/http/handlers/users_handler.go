package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/service"
)

// UsersHandler manages staff accounts, job titles and the permission catalog.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	active, err := optionalBoolQuery(c, "active")
	if err != nil {
		return err
	}
	users, err := h.users.ListUsers(c.UserContext(), repository.UserFilter{
		JobTitleID: optionalQuery(c, "job_title_id"),
		Active:     active,
		Search:     optionalQuery(c, "q"),
		Page:       pageFromQuery(c),
	})
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(users, dto.NewUserResponse))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewUserResponse(user))
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	active := req.Active == nil || *req.Active
	user, err := h.users.CreateUser(c.UserContext(), service.CreateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		JobTitleID: req.JobTitleID,
		Active:     active,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewUserResponse(user))
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.UserContext(), c.Params("id"), service.UpdateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		JobTitleID: req.JobTitleID,
		Active:     req.Active,
	})
	if err != nil {
		return err
	}
	return ok(c, dto.NewUserResponse(user))
}

// SetPassword handles PUT /users/:id/password.
func (h *UsersHandler) SetPassword(c *fiber.Ctx) error {
	var req dto.SetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.SetPassword(c.UserContext(), c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var self string
	if id := principal.UserID(); id != nil {
		self = *id
	}
	if err := h.users.DeleteUser(c.UserContext(), self, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListJobTitles handles GET /job-titles.
func (h *UsersHandler) ListJobTitles(c *fiber.Ctx) error {
	titles, err := h.users.ListJobTitles(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, dto.MapSlice(titles, dto.NewJobTitleResponse))
}

// GetJobTitle handles GET /job-titles/:id.
func (h *UsersHandler) GetJobTitle(c *fiber.Ctx) error {
	title, err := h.users.GetJobTitle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, dto.NewJobTitleResponse(title))
}

// CreateJobTitle handles POST /job-titles.
func (h *UsersHandler) CreateJobTitle(c *fiber.Ctx) error {
	var req dto.JobTitleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	title, err := h.users.CreateJobTitle(c.UserContext(), service.JobTitleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return created(c, dto.NewJobTitleResponse(title))
}

// UpdateJobTitle handles PUT /job-titles/:id.
func (h *UsersHandler) UpdateJobTitle(c *fiber.Ctx) error {
	var req dto.JobTitleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	title, err := h.users.UpdateJobTitle(c.UserContext(), c.Params("id"), service.JobTitleInput{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		return err
	}
	return ok(c, dto.NewJobTitleResponse(title))
}

// DeleteJobTitle handles DELETE /job-titles/:id.
func (h *UsersHandler) DeleteJobTitle(c *fiber.Ctx) error {
	if err := h.users.DeleteJobTitle(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Permissions handles GET /permissions.
func (h *UsersHandler) Permissions(c *fiber.Ctx) error {
	return ok(c, h.users.ListPermissions())
}
