package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ContractStatus
		want     bool
	}{
		{ContractStatusPending, ContractStatusActive, true},
		{ContractStatusPending, ContractStatusCancelled, true},
		{ContractStatusPending, ContractStatusTerminated, false},
		{ContractStatusActive, ContractStatusExpired, true},
		{ContractStatusActive, ContractStatusTerminated, true},
		{ContractStatusActive, ContractStatusCancelled, false},
		{ContractStatusExpired, ContractStatusActive, false},
		{ContractStatusTerminated, ContractStatusActive, false},
		{ContractStatusCancelled, ContractStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestContractDays(t *testing.T) {
	c := &Contract{
		StartDate: Date(2024, time.January, 1),
		EndDate:   Date(2025, time.January, 1),
		Status:    ContractStatusActive,
	}
	assert.Equal(t, 366, c.TotalDays())
	assert.Equal(t, 366, c.RemainingDays(Date(2023, time.December, 1)))
	assert.Equal(t, 31, c.RemainingDays(Date(2024, time.December, 1)))
	assert.Equal(t, 0, c.RemainingDays(Date(2025, time.March, 1)))

	assert.True(t, c.ExpiringWithin(Date(2024, time.December, 10), 30))
	assert.False(t, c.ExpiringWithin(Date(2024, time.October, 1), 30))
	assert.False(t, c.DueToExpire(Date(2024, time.December, 31)))
	assert.True(t, c.DueToExpire(Date(2025, time.January, 1)))

	same := &Contract{StartDate: Date(2024, time.May, 1), EndDate: Date(2024, time.May, 1)}
	assert.Equal(t, 1, same.TotalDays())
}

func TestContractOverlapsUsesTerminationDate(t *testing.T) {
	term := Date(2024, time.March, 10)
	c := &Contract{
		StartDate:       Date(2024, time.January, 1),
		EndDate:         Date(2025, time.January, 1),
		TerminationDate: &term,
	}
	assert.True(t, c.Overlaps(Date(2024, time.March, 1), Date(2024, time.April, 1)))
	assert.False(t, c.Overlaps(Date(2024, time.April, 1), Date(2024, time.May, 1)))
	assert.Equal(t, term, c.EffectiveEnd())
}

func TestCalculateSettlement(t *testing.T) {
	contract := &Contract{
		StartDate: Date(2024, time.January, 1),
		EndDate:   Date(2025, time.January, 1),
		Fee:       366000,
	}
	policy := SettlementPolicy{ClientPenaltyPercent: 25, ProbationDays: 90}

	t.Run("client request after probation pays penalty", func(t *testing.T) {
		s, err := CalculateSettlement(contract, Date(2024, time.June, 1), TerminationClientRequest, policy)
		require.NoError(t, err)
		assert.Equal(t, 152, s.UsedDays)
		assert.Equal(t, 214, s.RemainingDays)
		assert.Equal(t, Money(152000), s.Consumed)
		assert.Equal(t, Money(214000), s.Remaining)
		assert.Equal(t, Money(53500), s.Penalty)
		assert.Equal(t, Money(160500), s.Refund)
		assert.False(t, s.WithinProbation)
	})

	t.Run("client request within probation has no penalty", func(t *testing.T) {
		s, err := CalculateSettlement(contract, Date(2024, time.February, 15), TerminationClientRequest, policy)
		require.NoError(t, err)
		assert.Equal(t, 45, s.UsedDays)
		assert.True(t, s.WithinProbation)
		assert.Equal(t, Money(0), s.Penalty)
		assert.Equal(t, Money(321000), s.Refund)
	})

	t.Run("worker fault refunds the remainder", func(t *testing.T) {
		s, err := CalculateSettlement(contract, Date(2024, time.June, 1), TerminationWorkerAbsconded, policy)
		require.NoError(t, err)
		assert.Equal(t, Money(0), s.Penalty)
		assert.Equal(t, Money(214000), s.Refund)
	})

	t.Run("termination on start day refunds everything", func(t *testing.T) {
		s, err := CalculateSettlement(contract, Date(2024, time.January, 1), TerminationAgency, policy)
		require.NoError(t, err)
		assert.Equal(t, Money(366000), s.Refund)
	})

	t.Run("dates outside the contract are rejected", func(t *testing.T) {
		_, err := CalculateSettlement(contract, Date(2023, time.December, 31), TerminationAgency, policy)
		assert.ErrorIs(t, err, ErrTerminationBeforeStart)
		_, err = CalculateSettlement(contract, Date(2025, time.January, 1), TerminationAgency, policy)
		assert.ErrorIs(t, err, ErrTerminationAfterEnd)
	})

	t.Run("unknown reason", func(t *testing.T) {
		_, err := CalculateSettlement(contract, Date(2024, time.June, 1), TerminationReason("OTHER"), policy)
		assert.Error(t, err)
	})
}

func TestProrateSalary(t *testing.T) {
	assert.Equal(t, Money(150000), ProrateSalary(150000, 30, 30))
	assert.Equal(t, Money(150000), ProrateSalary(150000, 31, 30))
	assert.Equal(t, Money(75000), ProrateSalary(150000, 15, 30))
	assert.Equal(t, Money(0), ProrateSalary(150000, 0, 30))
}

func TestParsePeriod(t *testing.T) {
	from, to, err := ParsePeriod("2024-02")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, time.February, 1), from)
	assert.Equal(t, Date(2024, time.March, 1), to)
	assert.Equal(t, 29, DaysInMonth(from))

	_, _, err = ParsePeriod("2024/02")
	assert.Error(t, err)
}

func TestJobTitleHas(t *testing.T) {
	admin := &JobTitle{Permissions: []Permission{PermissionAll}}
	officer := &JobTitle{Permissions: []Permission{PermWorkersRead, PermContractsRead}}

	assert.True(t, admin.Has(PermBackupsManage))
	assert.True(t, admin.IsAdministrator())
	assert.True(t, officer.Has(PermWorkersRead))
	assert.False(t, officer.Has(PermWorkersWrite))
	assert.False(t, officer.IsAdministrator())

	var missing *JobTitle
	assert.False(t, missing.Has(PermWorkersRead))
}
