package dto

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/recruitment-office/internal/domain"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseMoney(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
			_, _, err := domain.ParsePeriod(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks struct tags and returns a VALIDATION_FAILED error listing the offending fields.
func Validate(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return apperrors.NewValidationError("invalid payload", details)
}

// Money parses an optional decimal amount; an empty string is zero.
func Money(value string) domain.Money {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	m, _ := domain.ParseMoney(value)
	return m
}

// MoneyPtr parses an optional amount, keeping nil for absent values.
func MoneyPtr(value *string) *domain.Money {
	if value == nil {
		return nil
	}
	m := Money(*value)
	return &m
}

// Date parses an optional YYYY-MM-DD value; an empty string is the zero time.
func Date(value string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	t, _ := domain.ParseDate(value)
	return t
}

// DatePtr parses an optional date, keeping nil for absent or empty values.
func DatePtr(value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	t := Date(*value)
	return &t
}
