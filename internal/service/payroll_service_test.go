package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/spreadsheet"
)

func TestPayrollGenerateProratesPartialMonth(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 4, 16))
	ctx := context.Background()
	maria := env.worker(t, "Maria Santos", "2100000001")
	joy := env.worker(t, "Joy Reyes", "2100000002")

	// Maria starts mid-April; Joy covers the whole month
	env.activeContract(t, maria, env.client(t, "Abdullah", "1000000001"), domain.Date(2026, 4, 16), 0)
	env.now = domain.Date(2026, 3, 1)
	env.activeContract(t, joy, env.client(t, "Salem", "1000000002"), domain.Date(2026, 3, 1), 0)
	env.now = domain.Date(2026, 5, 2)

	assert.Equal(t, "2026-05", env.payroll.CurrentPeriod())

	result, err := env.payroll.Generate(ctx, "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)
	assert.Zero(t, result.Paid)

	entries, err := env.payroll.List(ctx, "2026-04")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byWorker := map[string]domain.PayrollEntry{}
	for _, e := range entries {
		byWorker[e.WorkerID] = e
	}
	assert.Equal(t, 15, byWorker[maria.ID].DaysWorked)
	assert.Equal(t, domain.Money(75000), byWorker[maria.ID].BaseSalary)
	assert.Equal(t, "Maria Santos", byWorker[maria.ID].WorkerName)
	assert.Equal(t, 30, byWorker[joy.ID].DaysWorked)
	assert.Equal(t, domain.Money(150000), byWorker[joy.ID].Net)
}

func TestPayrollAdjustAndPay(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	w := env.worker(t, "Maria Santos", "2100000001")
	env.activeContract(t, w, env.client(t, "Abdullah", "1000000001"), domain.Date(2026, 3, 1), 0)

	_, err := env.payroll.Generate(ctx, "2026-03")
	require.NoError(t, err)
	entries, err := env.payroll.List(ctx, "2026-03")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	_, err = env.payroll.Adjust(ctx, id, -1, 0)
	requireCode(t, err, "VALIDATION_FAILED")

	adjusted, err := env.payroll.Adjust(ctx, id, 20000, 5000)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(165000), adjusted.Net)

	// regenerating keeps manual adjustments on unpaid rows
	_, err = env.payroll.Generate(ctx, "2026-03")
	require.NoError(t, err)
	again, err := env.payroll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(165000), again.Net)

	n, err := env.payroll.CountUnpaid(ctx, "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	paid, err := env.payroll.MarkPaid(ctx, id)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaidAt)

	_, err = env.payroll.MarkPaid(ctx, id)
	requireCode(t, err, "CONFLICT")
	_, err = env.payroll.Adjust(ctx, id, 0, 0)
	requireCode(t, err, "CONFLICT")

	result, err := env.payroll.Generate(ctx, "2026-03")
	require.NoError(t, err)
	assert.Zero(t, result.Written)
	assert.Equal(t, 1, result.Paid)

	var buf bytes.Buffer
	require.NoError(t, env.payroll.Export(ctx, &buf, "2026-03"))
	rows, err := spreadsheet.ReadRows(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Worker", rows[0][0])
	assert.Equal(t, "Maria Santos", rows[1][0])
}

func TestPayrollRejectsBadPeriod(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	_, err := env.payroll.Generate(context.Background(), "March")
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = env.payroll.List(context.Background(), "2026-13")
	requireCode(t, err, "VALIDATION_FAILED")
}
