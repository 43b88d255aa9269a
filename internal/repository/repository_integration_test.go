//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/persistence"
)

func setupRepos(t *testing.T) (context.Context, *Repositories) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("office"),
		tcpostgres.WithUsername("office"),
		tcpostgres.WithPassword("office_dev"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, persistence.MigrateUp(dbURL, zap.NewNop()))

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return ctx, New(pool)
}

func seedContract(t *testing.T, ctx context.Context, repos *Repositories, status domain.ContractStatus) (*domain.Worker, *domain.Contract) {
	t.Helper()
	require.NoError(t, repos.Nationalities.Upsert(ctx, &domain.Nationality{Code: "PH", Name: "Philippines", MonthlySalary: 150000}))

	worker := &domain.Worker{
		FullName:        "Maria Santos",
		Nationality:     "PH",
		ResidencyNumber: "2" + time.Now().Format("150405.000000"),
		Status:          domain.WorkerStatusAvailable,
		MonthlySalary:   150000,
	}
	require.NoError(t, repos.Workers.Create(ctx, worker))

	client := &domain.Client{FullName: "Ahmed Saleh", NationalID: "1" + time.Now().Format("150405.000000")}
	require.NoError(t, repos.Clients.Create(ctx, client))

	contract := &domain.Contract{
		Number:        "CNT-" + worker.ResidencyNumber,
		WorkerID:      worker.ID,
		ClientID:      client.ID,
		StartDate:     domain.Date(2024, time.January, 1),
		EndDate:       domain.Date(2025, time.January, 1),
		Fee:           1_500_000,
		MonthlySalary: 150000,
		Status:        status,
	}
	require.NoError(t, repos.Contracts.Create(ctx, contract))
	return worker, contract
}

func TestContractLifecycleQueries(t *testing.T) {
	ctx, repos := setupRepos(t)
	worker, contract := seedContract(t, ctx, repos, domain.ContractStatusActive)

	open, err := repos.Contracts.HasOpenContract(ctx, worker.ID)
	require.NoError(t, err)
	assert.True(t, open)

	today := domain.Date(2025, time.January, 2)
	due, err := repos.Contracts.List(ctx, ContractFilter{
		Statuses:      []domain.ContractStatus{domain.ContractStatusActive},
		EndOnOrBefore: &today,
		Unbounded:     true,
	})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, contract.ID, due[0].ID)
	assert.True(t, due[0].StartDate.Equal(contract.StartDate))

	require.NoError(t, repos.ContractHistory.Create(ctx, &domain.ContractHistory{
		ContractID: contract.ID,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": "PENDING"},
		NewValue:   map[string]any{"status": "ACTIVE"},
	}))
	history, err := repos.ContractHistory.ListByContract(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ACTIVE", history[0].NewValue["status"])

	require.NoError(t, repos.Tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := repos.Contracts.GetForUpdate(ctx, contract.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.ContractStatusActive, locked.Status)
		return nil
	}))
}

func TestArchiveRoundTripAndDuplicates(t *testing.T) {
	ctx, repos := setupRepos(t)
	_, contract := seedContract(t, ctx, repos, domain.ContractStatusExpired)

	archived, err := repos.Archive.ArchiveContract(ctx, contract.ID, nil, "expired")
	require.NoError(t, err)
	assert.Equal(t, contract.ID, archived.Contract.ID)

	_, err = repos.Contracts.GetByID(ctx, contract.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	restored, err := repos.Archive.RestoreContract(ctx, archived.ArchiveID)
	require.NoError(t, err)
	assert.Equal(t, contract.Number, restored.Number)

	// restoring consumes the archive row, so repeated cycles leave no duplicates
	first, err := repos.Archive.ArchiveContract(ctx, contract.ID, nil, "one")
	require.NoError(t, err)
	_, err = repos.Archive.RestoreContract(ctx, first.ArchiveID)
	require.NoError(t, err)
	_, err = repos.Archive.ArchiveContract(ctx, contract.ID, nil, "two")
	require.NoError(t, err)
	_, err = repos.Contracts.GetByID(ctx, contract.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	dups, err := repos.Archive.Duplicates(ctx)
	require.NoError(t, err)
	assert.Empty(t, dups)
}

func TestPayrollUpsertKeepsManualAdjustments(t *testing.T) {
	ctx, repos := setupRepos(t)
	worker, contract := seedContract(t, ctx, repos, domain.ContractStatusActive)

	entry := &domain.PayrollEntry{
		WorkerID:   worker.ID,
		WorkerName: worker.FullName,
		ContractID: &contract.ID,
		Period:     "2024-03",
		DaysWorked: 31,
		BaseSalary: 150000,
	}
	entry.Recalculate()
	written, err := repos.Payroll.Upsert(ctx, entry)
	require.NoError(t, err)
	require.True(t, written)

	entry.Allowances = 10000
	entry.Recalculate()
	require.NoError(t, repos.Payroll.Update(ctx, entry))

	again := &domain.PayrollEntry{WorkerID: worker.ID, WorkerName: worker.FullName, Period: "2024-03", DaysWorked: 20, BaseSalary: 96774}
	again.Recalculate()
	written, err = repos.Payroll.Upsert(ctx, again)
	require.NoError(t, err)
	require.True(t, written)
	assert.Equal(t, domain.Money(10000), again.Allowances)
	assert.Equal(t, domain.Money(106774), again.Net)

	now := time.Now()
	again.Paid, again.PaidAt = true, &now
	require.NoError(t, repos.Payroll.Update(ctx, again))
	written, err = repos.Payroll.Upsert(ctx, &domain.PayrollEntry{WorkerID: worker.ID, Period: "2024-03"})
	require.NoError(t, err)
	assert.False(t, written)
}

func TestJobTitlePermissions(t *testing.T) {
	ctx, repos := setupRepos(t)
	require.NoError(t, repos.JobTitles.UpsertPermissions(ctx, []domain.PermissionInfo{
		{Code: domain.PermWorkersRead}, {Code: domain.PermWorkersWrite},
	}))

	title := &domain.JobTitle{Name: "Clerk", Permissions: []domain.Permission{domain.PermWorkersRead}}
	require.NoError(t, repos.JobTitles.Create(ctx, title))

	title.Permissions = []domain.Permission{domain.PermWorkersRead, domain.PermWorkersWrite}
	require.NoError(t, repos.JobTitles.Update(ctx, title))

	loaded, err := repos.JobTitles.GetByName(ctx, "clerk")
	require.NoError(t, err)
	assert.ElementsMatch(t, title.Permissions, loaded.Permissions)
}
