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

// MarketerService handles sales referrers and their commissions.
type MarketerService struct {
	marketers repository.MarketerRepository
	contracts repository.ContractRepository
	users     repository.UserRepository
	tx        repository.Transactor
	logger    *zap.Logger
}

// MarketerDependencies bundles collaborators.
type MarketerDependencies struct {
	MarketerRepo repository.MarketerRepository
	ContractRepo repository.ContractRepository
	UserRepo     repository.UserRepository
	Tx           repository.Transactor
	Logger       *zap.Logger
}

// NewMarketerService constructs the service.
func NewMarketerService(deps MarketerDependencies) *MarketerService {
	return &MarketerService{
		marketers: deps.MarketerRepo,
		contracts: deps.ContractRepo,
		users:     deps.UserRepo,
		tx:        deps.Tx,
		logger:    orNop(deps.Logger),
	}
}

// MarketerInput carries the editable marketer fields.
type MarketerInput struct {
	Name              string
	Phone             string
	UserID            *string
	CommissionPercent int
	Active            bool
}

func (s *MarketerService) clean(ctx context.Context, in MarketerInput) (MarketerInput, error) {
	in.Name = sanitize.Text(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.UserID = trimPtr(in.UserID)
	if in.Name == "" {
		return in, apperrors.NewValidationError("name is required", nil)
	}
	if in.CommissionPercent < 0 || in.CommissionPercent > 100 {
		return in, apperrors.NewValidationError("commission percent must be between 0 and 100",
			map[string]any{"commission_percent": in.CommissionPercent})
	}
	if in.UserID != nil && s.users != nil {
		if _, err := s.users.GetByID(ctx, *in.UserID); err != nil {
			return in, apperrors.NotFoundOr(err, "user", map[string]any{"id": *in.UserID})
		}
	}
	return in, nil
}

// Create registers a marketer.
func (s *MarketerService) Create(ctx context.Context, input MarketerInput) (*domain.Marketer, error) {
	input, err := s.clean(ctx, input)
	if err != nil {
		return nil, err
	}
	m := &domain.Marketer{
		Name:              input.Name,
		Phone:             input.Phone,
		UserID:            input.UserID,
		CommissionPercent: input.CommissionPercent,
		Active:            input.Active,
	}
	if err := s.marketers.Create(ctx, m); err != nil {
		return nil, apperrors.MapError(err)
	}
	return m, nil
}

// Get fetches a marketer.
func (s *MarketerService) Get(ctx context.Context, id string) (*domain.Marketer, error) {
	m, err := s.marketers.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "marketer", map[string]any{"id": id})
	}
	return m, nil
}

// List returns marketers matching filter.
func (s *MarketerService) List(ctx context.Context, filter repository.MarketerFilter) ([]domain.Marketer, error) {
	list, err := s.marketers.List(ctx, filter)
	return list, apperrors.MapError(err)
}

// Update replaces a marketer's details.
func (s *MarketerService) Update(ctx context.Context, id string, input MarketerInput) (*domain.Marketer, error) {
	input, err := s.clean(ctx, input)
	if err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Name = input.Name
	m.Phone = input.Phone
	m.UserID = input.UserID
	m.CommissionPercent = input.CommissionPercent
	m.Active = input.Active
	if err := s.marketers.Update(ctx, m); err != nil {
		return nil, apperrors.MapError(err)
	}
	return m, nil
}

// Delete removes a marketer never credited with a contract. Others should be deactivated.
func (s *MarketerService) Delete(ctx context.Context, id string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		contracts, err := s.contracts.List(ctx, repository.ContractFilter{MarketerID: &id, Page: repository.Page{Limit: 1}})
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(contracts) > 0 {
			return apperrors.NewConflict("marketer is credited with contracts; deactivate instead", nil)
		}
		return apperrors.MapError(s.marketers.Delete(ctx, id))
	})
}

// CommissionLine is one contract's contribution to a commission report.
type CommissionLine struct {
	ContractID     string                `json:"contract_id"`
	ContractNumber string                `json:"contract_number"`
	StartDate      time.Time             `json:"start_date"`
	Status         domain.ContractStatus `json:"status"`
	Fee            domain.Money          `json:"fee"`
	Commission     domain.Money          `json:"commission"`
}

// CommissionReport totals a marketer's commission over a period.
type CommissionReport struct {
	Marketer        domain.Marketer  `json:"marketer"`
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	Lines           []CommissionLine `json:"lines"`
	TotalFee        domain.Money     `json:"total_fee"`
	TotalCommission domain.Money     `json:"total_commission"`
}

// CommissionReport sums commission over contracts started in [from, to) that were not cancelled.
func (s *MarketerService) CommissionReport(ctx context.Context, id string, from, to time.Time) (*CommissionReport, error) {
	from, to = domain.TruncateDay(from), domain.TruncateDay(to)
	if !to.After(from) {
		return nil, apperrors.NewValidationError("the end of the period must be after its start", nil)
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contracts.List(ctx, repository.ContractFilter{
		MarketerID: &id,
		StartFrom:  &from,
		StartTo:    &to,
		Statuses: []domain.ContractStatus{
			domain.ContractStatusPending,
			domain.ContractStatusActive,
			domain.ContractStatusExpired,
			domain.ContractStatusTerminated,
		},
		Unbounded: true,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	report := &CommissionReport{Marketer: *m, From: from, To: to, Lines: make([]CommissionLine, 0, len(contracts))}
	for _, c := range contracts {
		commission := m.Commission(c.Fee)
		report.Lines = append(report.Lines, CommissionLine{
			ContractID:     c.ID,
			ContractNumber: c.Number,
			StartDate:      c.StartDate,
			Status:         c.Status,
			Fee:            c.Fee,
			Commission:     commission,
		})
		report.TotalFee += c.Fee
		report.TotalCommission += commission
	}
	return report, nil
}
