package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recruitment-office/internal/api/dto"
	"github.com/spec-kit/recruitment-office/internal/auth"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	contentTypePDF  = "application/pdf"
)

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

func ok(c *fiber.Ctx, payload any) error {
	return data(c, http.StatusOK, payload)
}

func created(c *fiber.Ctx, payload any) error {
	return data(c, http.StatusCreated, payload)
}

// actorID returns the caller's user id for audit columns.
func actorID(c *fiber.Ctx) *string {
	principal, _ := auth.PrincipalFromContext(c)
	return principal.UserID()
}

func pageFromQuery(c *fiber.Ctx) repository.Page {
	return repository.Page{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func optionalBoolQuery(c *fiber.Ctx, key string) (*bool, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid boolean", map[string]any{key: v})
	}
	return &b, nil
}

// dateQuery parses a YYYY-MM-DD query parameter, returning def when absent.
func dateQuery(c *fiber.Ctx, key string, def time.Time) (time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	t, err := domain.ParseDate(v)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(err.Error(), map[string]any{key: v})
	}
	return t, nil
}

// csvQuery splits a comma separated query parameter.
func csvQuery(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// attachment sends a generated file.
func attachment(c *fiber.Ctx, buf *bytes.Buffer, name, contentType string) error {
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf.Bytes())
}
