package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// SalaryCache stores salary references by key. *persistence.Redis satisfies it.
type SalaryCache interface {
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, val int64, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// NationalityService manages the salary reference table.
type NationalityService struct {
	repo   repository.NationalityRepository
	cache  SalaryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NationalityDependencies bundles collaborators.
type NationalityDependencies struct {
	Repo     repository.NationalityRepository
	Cache    SalaryCache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// NewNationalityService constructs the service.
func NewNationalityService(deps NationalityDependencies) *NationalityService {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &NationalityService{repo: deps.Repo, cache: deps.Cache, ttl: ttl, logger: orNop(deps.Logger)}
}

func salaryKey(code string) string {
	return "salary:" + code
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// List returns every nationality.
func (s *NationalityService) List(ctx context.Context) ([]domain.Nationality, error) {
	list, err := s.repo.List(ctx)
	return list, apperrors.MapError(err)
}

// Get fetches a nationality by code.
func (s *NationalityService) Get(ctx context.Context, code string) (*domain.Nationality, error) {
	code = normalizeCode(code)
	n, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "nationality", map[string]any{"code": code})
	}
	return n, nil
}

// Upsert creates or replaces a nationality and drops its cached salary.
func (s *NationalityService) Upsert(ctx context.Context, n domain.Nationality) (*domain.Nationality, error) {
	n.Code = normalizeCode(n.Code)
	n.Name = sanitize.Text(n.Name)
	if n.Code == "" || n.Name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	if n.MonthlySalary < 0 || n.RecruitmentFee < 0 {
		return nil, apperrors.NewValidationError("amounts must not be negative", nil)
	}
	if err := s.repo.Upsert(ctx, &n); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, n.Code)
	return &n, nil
}

// Delete removes a nationality.
func (s *NationalityService) Delete(ctx context.Context, code string) error {
	code = normalizeCode(code)
	if err := s.repo.Delete(ctx, code); err != nil {
		return apperrors.NotFoundOr(err, "nationality", map[string]any{"code": code})
	}
	s.invalidate(ctx, code)
	return nil
}

// SalaryFor returns the reference monthly salary, served from cache when possible.
// Cache failures fall through to the database.
func (s *NationalityService) SalaryFor(ctx context.Context, code string) (domain.Money, error) {
	code = normalizeCode(code)
	if s.cache != nil {
		if v, ok, err := s.cache.GetInt64(ctx, salaryKey(code)); err != nil {
			s.logger.Warn("salary cache read failed", zap.String("code", code), zap.Error(err))
		} else if ok {
			return domain.Money(v), nil
		}
	}
	n, err := s.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetInt64(ctx, salaryKey(code), int64(n.MonthlySalary), s.ttl); err != nil {
			s.logger.Warn("salary cache write failed", zap.String("code", code), zap.Error(err))
		}
	}
	return n.MonthlySalary, nil
}

func (s *NationalityService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, salaryKey(code)); err != nil {
		s.logger.Warn("salary cache invalidation failed", zap.String("code", code), zap.Error(err))
	}
}
