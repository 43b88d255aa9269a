package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recruitment-office/internal/catalog"
	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/repository"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

type testEnv struct {
	store  *store
	repos  *repository.Repositories
	events *recorder
	now    time.Time

	nationalities *NationalityService
	workers       *WorkerService
	clients       *ClientService
	marketers     *MarketerService
	contracts     *ContractService
	payroll       *PayrollService
	archive       *ArchiveService
	users         *UserService
}

var testContractConfig = config.ContractConfig{
	ClientPenaltyPercent: 25,
	ProbationDays:        90,
	ExpiringWindowDays:   30,
	ArchiveAfterDays:     30,
}

// newTestEnv wires every service to the in-memory store with "today" pinned to
// the given date. advance moves it forward.
func newTestEnv(t *testing.T, today time.Time) *testEnv {
	t.Helper()
	s := newStore()
	repos := s.repos()
	rec := &recorder{}

	cat, err := catalog.Load()
	require.NoError(t, err)

	env := &testEnv{store: s, repos: repos, events: rec, now: today.Add(9 * time.Hour)}
	clock := Clock(func() time.Time { return env.now })
	env.nationalities = NewNationalityService(NationalityDependencies{Repo: repos.Nationalities})
	env.workers = NewWorkerService(WorkerDependencies{
		WorkerRepo:    repos.Workers,
		ContractRepo:  repos.Contracts,
		Nationalities: env.nationalities,
		Tx:            repos.Tx,
		Dispatcher:    rec,
	})
	env.clients = NewClientService(ClientDependencies{
		ClientRepo:   repos.Clients,
		ContractRepo: repos.Contracts,
		Tx:           repos.Tx,
	})
	env.marketers = NewMarketerService(MarketerDependencies{
		MarketerRepo: repos.Marketers,
		ContractRepo: repos.Contracts,
		UserRepo:     repos.Users,
		Tx:           repos.Tx,
	})
	env.contracts = NewContractService(testContractConfig, ContractDependencies{
		ContractRepo: repos.Contracts,
		HistoryRepo:  repos.ContractHistory,
		WorkerRepo:   repos.Workers,
		ClientRepo:   repos.Clients,
		MarketerRepo: repos.Marketers,
		Tx:           repos.Tx,
		Dispatcher:   rec,
		Clock:        clock,
	})
	env.payroll = NewPayrollService(PayrollDependencies{
		PayrollRepo:  repos.Payroll,
		ContractRepo: repos.Contracts,
		WorkerRepo:   repos.Workers,
		Tx:           repos.Tx,
		Clock:        clock,
	})
	env.archive = NewArchiveService(ArchiveDependencies{
		ArchiveRepo:      repos.Archive,
		ContractRepo:     repos.Contracts,
		HistoryRepo:      repos.ContractHistory,
		WorkerRepo:       repos.Workers,
		ClientRepo:       repos.Clients,
		MarketerRepo:     repos.Marketers,
		Tx:               repos.Tx,
		Dispatcher:       rec,
		ArchiveAfterDays: testContractConfig.ArchiveAfterDays,
		Clock:            clock,
	})
	env.users = NewUserService(UserDependencies{
		UserRepo:     repos.Users,
		JobTitleRepo: repos.JobTitles,
		Tx:           repos.Tx,
		Catalog:      cat,
		BcryptCost:   4,
	})

	require.NoError(t, repos.Nationalities.Upsert(context.Background(), &domain.Nationality{
		Code:          "PH",
		Name:          "Philippines",
		MonthlySalary: domain.Money(150000),
	}))
	return env
}

func (e *testEnv) worker(t *testing.T, name, residency string) *domain.Worker {
	t.Helper()
	w, err := e.workers.Create(context.Background(), WorkerInput{
		FullName:        name,
		Nationality:     "PH",
		ResidencyNumber: residency,
	})
	require.NoError(t, err)
	return w
}

func (e *testEnv) client(t *testing.T, name, nationalID string) *domain.Client {
	t.Helper()
	c, err := e.clients.Create(context.Background(), ClientInput{
		FullName:   name,
		NationalID: nationalID,
		Phone:      "0500000000",
		City:       "Riyadh",
	})
	require.NoError(t, err)
	return c
}

// activeContract creates and activates a one-year contract starting on start.
func (e *testEnv) activeContract(t *testing.T, w *domain.Worker, c *domain.Client, start time.Time, fee domain.Money) *domain.Contract {
	t.Helper()
	ctx := context.Background()
	contract, err := e.contracts.Create(ctx, nil, ContractInput{
		WorkerID:  w.ID,
		ClientID:  c.ID,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Fee:       fee,
	})
	require.NoError(t, err)
	contract, err = e.contracts.Activate(ctx, nil, contract.ID)
	require.NoError(t, err)
	return contract
}

func (e *testEnv) advance(days int) {
	e.now = e.now.AddDate(0, 0, days)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	require.Equal(t, code, de.Code, de.Message)
}

func strPtr(s string) *string { return &s }
