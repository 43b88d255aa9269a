package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// Dashboard is the office overview.
type Dashboard struct {
	GeneratedAt        time.Time                     `json:"generated_at"`
	WorkersByStatus    map[domain.WorkerStatus]int   `json:"workers_by_status"`
	ContractsByStatus  map[domain.ContractStatus]int `json:"contracts_by_status"`
	ExpiringContracts  []ExpiringContract            `json:"expiring_contracts"`
	ExpiringWindowDays int                           `json:"expiring_window_days"`
	PayrollPeriod      string                        `json:"payroll_period"`
	UnpaidPayroll      int                           `json:"unpaid_payroll"`
}

// DashboardService aggregates counts for the overview page.
type DashboardService struct {
	workers   repository.WorkerRepository
	contracts repository.ContractRepository
	expiring  *ContractService
	payroll   *PayrollService
	clock     Clock
}

// DashboardDependencies bundles collaborators.
type DashboardDependencies struct {
	WorkerRepo   repository.WorkerRepository
	ContractRepo repository.ContractRepository
	Contracts    *ContractService
	Payroll      *PayrollService
	Clock        Clock
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	return &DashboardService{
		workers:   deps.WorkerRepo,
		contracts: deps.ContractRepo,
		expiring:  deps.Contracts,
		payroll:   deps.Payroll,
		clock:     deps.Clock,
	}
}

// Get runs the dashboard queries concurrently.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		GeneratedAt:        s.clock.now().UTC(),
		ExpiringWindowDays: s.expiring.expiringDays,
		PayrollPeriod:      s.payroll.CurrentPeriod(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.workers.CountByStatus(gctx)
		d.WorkersByStatus = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.contracts.CountByStatus(gctx)
		d.ContractsByStatus = counts
		return err
	})
	g.Go(func() error {
		list, err := s.expiring.Expiring(gctx, 0)
		d.ExpiringContracts = list
		return err
	})
	g.Go(func() error {
		n, err := s.payroll.CountUnpaid(gctx, d.PayrollPeriod)
		d.UnpaidPayroll = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.MapError(err)
	}
	return d, nil
}
