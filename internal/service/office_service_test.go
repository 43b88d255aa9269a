package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/documents"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/notify"
)

func TestClientNationalIDAndDelete(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()
	c := env.client(t, "Abdullah", "1000000001")

	_, err := env.clients.Create(ctx, ClientInput{FullName: "Someone", NationalID: "1000000001"})
	requireCode(t, err, "CONFLICT")
	_, err = env.clients.Create(ctx, ClientInput{FullName: "Someone"})
	requireCode(t, err, "VALIDATION_FAILED")

	other := env.client(t, "Salem", "1000000002")
	_, err = env.clients.Update(ctx, other.ID, ClientInput{FullName: "Salem", NationalID: "1000000001"})
	requireCode(t, err, "CONFLICT")
	updated, err := env.clients.Update(ctx, other.ID, ClientInput{FullName: "Salem Alqahtani", NationalID: "1000000002", City: "Jeddah"})
	require.NoError(t, err)
	assert.Equal(t, "Jeddah", updated.City)

	env.activeContract(t, env.worker(t, "Maria", "2100000001"), c, domain.Date(2026, 3, 1), 0)
	requireCode(t, env.clients.Delete(ctx, c.ID), "CONFLICT")
	require.NoError(t, env.clients.Delete(ctx, other.ID))
}

func TestMarketerCommissionReport(t *testing.T) {
	env := newTestEnv(t, domain.Date(2026, 3, 1))
	ctx := context.Background()

	_, err := env.marketers.Create(ctx, MarketerInput{Name: "Khalid", CommissionPercent: 120})
	requireCode(t, err, "VALIDATION_FAILED")
	m, err := env.marketers.Create(ctx, MarketerInput{Name: "Khalid", CommissionPercent: 10, Active: true})
	require.NoError(t, err)

	c := env.client(t, "Abdullah", "1000000001")
	for i, res := range []string{"2100000001", "2100000002", "2100000003"} {
		w := env.worker(t, "Worker", res)
		contract, err := env.contracts.Create(ctx, nil, ContractInput{
			WorkerID:   w.ID,
			ClientID:   c.ID,
			MarketerID: &m.ID,
			StartDate:  domain.Date(2026, 3, 1+i*10),
			EndDate:    domain.Date(2027, 3, 1),
			Fee:        domain.Money(1000000),
		})
		require.NoError(t, err)
		if i == 2 {
			_, err = env.contracts.Cancel(ctx, nil, contract.ID, "")
			require.NoError(t, err)
		}
	}

	report, err := env.marketers.CommissionReport(ctx, m.ID, domain.Date(2026, 3, 1), domain.Date(2026, 4, 1))
	require.NoError(t, err)
	assert.Len(t, report.Lines, 2)
	assert.Equal(t, domain.Money(2000000), report.TotalFee)
	assert.Equal(t, domain.Money(200000), report.TotalCommission)

	_, err = env.marketers.CommissionReport(ctx, m.ID, domain.Date(2026, 4, 1), domain.Date(2026, 4, 1))
	requireCode(t, err, "VALIDATION_FAILED")

	requireCode(t, env.marketers.Delete(ctx, m.ID), "CONFLICT")
	idle, err := env.marketers.Create(ctx, MarketerInput{Name: "Idle", Active: true})
	require.NoError(t, err)
	require.NoError(t, env.marketers.Delete(ctx, idle.ID))
}

func TestDashboardCounts(t *testing.T) {
	env := newTestEnv(t, domain.Date(2025, 3, 20))
	ctx := context.Background()
	env.activeContract(t, env.worker(t, "Maria", "2100000001"), env.client(t, "Abdullah", "1000000001"),
		domain.Date(2025, 3, 20), domain.Money(365000))
	env.worker(t, "Joy", "2100000002")
	env.now = domain.Date(2026, 3, 1)

	dash := NewDashboardService(DashboardDependencies{
		WorkerRepo:   env.repos.Workers,
		ContractRepo: env.repos.Contracts,
		Contracts:    env.contracts,
		Payroll:      env.payroll,
		Clock:        func() time.Time { return env.now },
	})
	d, err := dash.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.WorkersByStatus[domain.WorkerStatusContracted])
	assert.Equal(t, 1, d.WorkersByStatus[domain.WorkerStatusAvailable])
	assert.Equal(t, 1, d.ContractsByStatus[domain.ContractStatusActive])
	assert.Len(t, d.ExpiringContracts, 1)
	assert.Equal(t, 30, d.ExpiringWindowDays)
	assert.Equal(t, "2026-03", d.PayrollPeriod)
}

func newDocumentService(env *testEnv) *DocumentService {
	return NewDocumentService(DocumentDependencies{
		Generator:    documents.NewGenerator(documents.Letterhead{Name: "Test Office"}, func() time.Time { return env.now }),
		Contracts:    env.contracts,
		WorkerRepo:   env.repos.Workers,
		ClientRepo:   env.repos.Clients,
		MarketerRepo: env.repos.Marketers,
		ContractRepo: env.repos.Contracts,
	})
}

func TestDocumentServiceFormats(t *testing.T) {
	env := newTestEnv(t, domain.Date(2025, 9, 1))
	ctx := context.Background()
	w := env.worker(t, "Maria Santos", "2100000001")
	contract := env.activeContract(t, w, env.client(t, "Abdullah", "1000000001"), domain.Date(2025, 9, 1), domain.Money(365000))
	docs := newDocumentService(env)

	var docx bytes.Buffer
	name, err := docs.ContractDocument(ctx, &docx, contract.ID, FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, contract.Number+".docx", name)
	zr, err := zip.NewReader(bytes.NewReader(docx.Bytes()), int64(docx.Len()))
	require.NoError(t, err)
	assert.NotEmpty(t, zr.File)

	var pdf bytes.Buffer
	_, err = docs.ContractDocument(ctx, &pdf, contract.ID, FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))

	_, err = docs.ContractDocument(ctx, &pdf, contract.ID, "odt")
	requireCode(t, err, "VALIDATION_FAILED")

	// active contracts get an estimate only when a reason is given
	_, err = docs.SettlementLetter(ctx, &bytes.Buffer{}, contract.ID, domain.Date(2026, 3, 1), "")
	requireCode(t, err, "VALIDATION_FAILED")
	var estimate bytes.Buffer
	_, err = docs.SettlementLetter(ctx, &estimate, contract.ID, domain.Date(2026, 3, 1), domain.TerminationClientRequest)
	require.NoError(t, err)

	_, _, err = env.contracts.Terminate(ctx, nil, contract.ID, TerminateInput{Date: domain.Date(2026, 3, 1), Reason: domain.TerminationAgency})
	require.NoError(t, err)
	var letter bytes.Buffer
	name, err = docs.SettlementLetter(ctx, &letter, contract.ID, time.Time{}, "")
	require.NoError(t, err)
	assert.Equal(t, contract.Number+"-settlement.pdf", name)

	var profile bytes.Buffer
	name, err = docs.WorkerProfile(ctx, &profile, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "worker-2100000001.pdf", name)
	assert.True(t, bytes.HasPrefix(profile.Bytes(), []byte("%PDF")))
}

func TestNotificationEmailsAdmins(t *testing.T) {
	env := newTestEnv(t, domain.Date(2025, 9, 1))
	ctx := context.Background()
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &memMailer{}
	renderer, err := notify.NewRenderer("Test Office")
	require.NoError(t, err)
	NewNotificationService(dispatcher, mailer, renderer, nil, config.NotificationConfig{
		AdminEmails: []string{"boss@office.test"},
	}).RegisterHandlers()

	contracts := NewContractService(testContractConfig, ContractDependencies{
		ContractRepo: env.repos.Contracts,
		HistoryRepo:  env.repos.ContractHistory,
		WorkerRepo:   env.repos.Workers,
		ClientRepo:   env.repos.Clients,
		MarketerRepo: env.repos.Marketers,
		Tx:           env.repos.Tx,
		Dispatcher:   dispatcher,
		Clock:        func() time.Time { return env.now },
	})
	contract := env.activeContract(t, env.worker(t, "Maria Santos", "2100000001"), env.client(t, "Abdullah", "1000000001"),
		domain.Date(2025, 9, 1), domain.Money(365000))

	_, _, err = contracts.Terminate(ctx, nil, contract.ID, TerminateInput{Date: domain.Date(2026, 1, 1), Reason: domain.TerminationAgency})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"boss@office.test"}, mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, contract.Number)
	assert.Contains(t, mailer.sent[0].body, "Maria Santos")

	// nothing expiring: no digest
	n, err := contracts.NotifyExpiring(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, mailer.sent, 1)
}

func TestNotificationSkipsWithoutRecipients(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mailer := &memMailer{}
	renderer, err := notify.NewRenderer("Test Office")
	require.NoError(t, err)
	NewNotificationService(dispatcher, mailer, renderer, nil, config.NotificationConfig{}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventContractTerminated,
		Payload: events.ContractTerminatedPayload{Number: "CNT-1"},
	}))
	assert.Empty(t, mailer.sent)

	err = dispatcher.Publish(context.Background(), events.Event{Type: events.EventContractTerminated, Payload: "garbage"})
	assert.Error(t, err)
}
