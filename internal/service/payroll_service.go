package service

import (
	"context"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/spreadsheet"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// PayrollService computes and tracks monthly worker pay.
type PayrollService struct {
	payroll   repository.PayrollRepository
	contracts repository.ContractRepository
	workers   repository.WorkerRepository
	tx        repository.Transactor
	clock     Clock
	logger    *zap.Logger
}

// PayrollDependencies bundles collaborators.
type PayrollDependencies struct {
	PayrollRepo  repository.PayrollRepository
	ContractRepo repository.ContractRepository
	WorkerRepo   repository.WorkerRepository
	Tx           repository.Transactor
	Clock        Clock
	Logger       *zap.Logger
}

// NewPayrollService constructs the service.
func NewPayrollService(deps PayrollDependencies) *PayrollService {
	return &PayrollService{
		payroll:   deps.PayrollRepo,
		contracts: deps.ContractRepo,
		workers:   deps.WorkerRepo,
		tx:        deps.Tx,
		clock:     deps.Clock,
		logger:    orNop(deps.Logger),
	}
}

// GenerateResult summarises a payroll run.
type GenerateResult struct {
	Period  string `json:"period"`
	Written int    `json:"written"`
	Paid    int    `json:"skipped_paid"`
}

type payrollAccumulator struct {
	days       int
	base       domain.Money
	contractID string
	latest     time.Time
}

// CurrentPeriod returns the payroll period containing today.
func (s *PayrollService) CurrentPeriod() string {
	return s.clock.today().Format(domain.PeriodLayout)
}

// Generate computes one entry per worker for every contract day falling in period.
// Re-running a period refreshes unpaid entries and keeps manual adjustments.
func (s *PayrollService) Generate(ctx context.Context, period string) (*GenerateResult, error) {
	from, to, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	contracts, err := s.contracts.List(ctx, repository.ContractFilter{
		Statuses: []domain.ContractStatus{
			domain.ContractStatusActive,
			domain.ContractStatusExpired,
			domain.ContractStatusTerminated,
		},
		OverlapFrom: &from,
		OverlapTo:   &to,
		Unbounded:   true,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	monthDays := domain.DaysInMonth(from)
	acc := map[string]*payrollAccumulator{}
	for _, c := range contracts {
		start := maxTime(c.StartDate, from)
		end := minTime(c.EffectiveEnd(), to)
		days := domain.DaysBetween(start, end)
		if days <= 0 {
			continue
		}
		a, ok := acc[c.WorkerID]
		if !ok {
			a = &payrollAccumulator{}
			acc[c.WorkerID] = a
		}
		a.days += days
		a.base += domain.ProrateSalary(c.MonthlySalary, days, monthDays)
		if !c.StartDate.Before(a.latest) {
			a.latest = c.StartDate
			a.contractID = c.ID
		}
	}

	workerIDs := make([]string, 0, len(acc))
	for id := range acc {
		workerIDs = append(workerIDs, id)
	}
	sort.Strings(workerIDs)

	result := &GenerateResult{Period: period}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, workerID := range workerIDs {
			a := acc[workerID]
			name := ""
			if w, err := s.workers.GetByID(ctx, workerID); err == nil {
				name = w.FullName
			}
			if a.days > monthDays {
				a.days = monthDays
			}
			contractID := a.contractID
			entry := &domain.PayrollEntry{
				WorkerID:   workerID,
				WorkerName: name,
				ContractID: &contractID,
				Period:     period,
				DaysWorked: a.days,
				BaseSalary: a.base,
			}
			entry.Recalculate()
			written, err := s.payroll.Upsert(ctx, entry)
			if err != nil {
				return apperrors.MapError(err)
			}
			if written {
				result.Written++
			} else {
				result.Paid++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payroll generated",
		zap.String("period", period),
		zap.Int("written", result.Written),
		zap.Int("skipped_paid", result.Paid))
	return result, nil
}

// List returns the entries of a period.
func (s *PayrollService) List(ctx context.Context, period string) ([]domain.PayrollEntry, error) {
	if _, _, err := domain.ParsePeriod(period); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	list, err := s.payroll.ListByPeriod(ctx, period)
	return list, apperrors.MapError(err)
}

// Get fetches one entry.
func (s *PayrollService) Get(ctx context.Context, id string) (*domain.PayrollEntry, error) {
	e, err := s.payroll.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "payroll entry", map[string]any{"id": id})
	}
	return e, nil
}

// Adjust sets the manual allowances and deductions of an unpaid entry.
func (s *PayrollService) Adjust(ctx context.Context, id string, allowances, deductions domain.Money) (*domain.PayrollEntry, error) {
	if allowances < 0 || deductions < 0 {
		return nil, apperrors.NewValidationError("allowances and deductions must not be negative", nil)
	}
	var entry *domain.PayrollEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		e, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if e.Paid {
			return apperrors.NewConflict("payroll entry is already paid", map[string]any{"id": id})
		}
		e.Allowances = allowances
		e.Deductions = deductions
		e.Recalculate()
		if err := s.payroll.Update(ctx, e); err != nil {
			return apperrors.MapError(err)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// MarkPaid locks an entry as paid.
func (s *PayrollService) MarkPaid(ctx context.Context, id string) (*domain.PayrollEntry, error) {
	var entry *domain.PayrollEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		e, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if e.Paid {
			return apperrors.NewConflict("payroll entry is already paid", map[string]any{"id": id})
		}
		now := s.clock.now()
		e.Paid = true
		e.PaidAt = &now
		if err := s.payroll.Update(ctx, e); err != nil {
			return apperrors.MapError(err)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CountUnpaid counts unpaid entries in period.
func (s *PayrollService) CountUnpaid(ctx context.Context, period string) (int, error) {
	n, err := s.payroll.CountUnpaid(ctx, period)
	return n, apperrors.MapError(err)
}

var payrollSheetHeaders = []string{
	"Worker", "Period", "Days Worked", "Base Salary", "Allowances", "Deductions", "Net", "Paid", "Paid At",
}

// Export writes a period's entries as an xlsx sheet with a totals row.
func (s *PayrollService) Export(ctx context.Context, w io.Writer, period string) error {
	entries, err := s.List(ctx, period)
	if err != nil {
		return err
	}
	var base, allowances, deductions, net domain.Money
	rows := make([][]any, 0, len(entries)+1)
	for _, e := range entries {
		paidAt := ""
		if e.PaidAt != nil {
			paidAt = e.PaidAt.Format(domain.DateLayout)
		}
		paid := "no"
		if e.Paid {
			paid = "yes"
		}
		rows = append(rows, []any{
			e.WorkerName, e.Period, e.DaysWorked, e.BaseSalary.Float(), e.Allowances.Float(),
			e.Deductions.Float(), e.Net.Float(), paid, paidAt,
		})
		base += e.BaseSalary
		allowances += e.Allowances
		deductions += e.Deductions
		net += e.Net
	}
	rows = append(rows, []any{"Total", period, "", base.Float(), allowances.Float(), deductions.Float(), net.Float(), "", ""})
	if err := spreadsheet.Write(w, spreadsheet.Sheet{Name: "Payroll " + period, Headers: payrollSheetHeaders, Rows: rows}); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
