package domain

import (
	"errors"
	"time"
)

var (
	ErrTerminationBeforeStart = errors.New("termination date is before the contract start date")
	ErrTerminationAfterEnd    = errors.New("termination date is on or after the contract end date")
)

// SettlementPolicy holds the agency's early-termination terms.
type SettlementPolicy struct {
	ClientPenaltyPercent int
	ProbationDays        int
}

// Settlement is the money owed back to the client when a contract ends early.
type Settlement struct {
	TotalDays       int
	UsedDays        int
	RemainingDays   int
	Consumed        Money
	Remaining       Money
	Penalty         Money
	Refund          Money
	WithinProbation bool
}

// CalculateSettlement prorates the contract fee over the days actually served.
func CalculateSettlement(c *Contract, terminationDate time.Time, reason TerminationReason, policy SettlementPolicy) (Settlement, error) {
	if !reason.Valid() {
		return Settlement{}, errors.New("unknown termination reason")
	}
	terminationDate = TruncateDay(terminationDate)
	if terminationDate.Before(TruncateDay(c.StartDate)) {
		return Settlement{}, ErrTerminationBeforeStart
	}
	if !terminationDate.Before(TruncateDay(c.EndDate)) {
		return Settlement{}, ErrTerminationAfterEnd
	}

	total := c.TotalDays()
	used := DaysBetween(c.StartDate, terminationDate)
	if used < 0 {
		used = 0
	}
	if used > total {
		used = total
	}

	consumed := c.Fee.MulDiv(int64(used), int64(total))
	remaining := c.Fee - consumed

	s := Settlement{
		TotalDays:       total,
		UsedDays:        used,
		RemainingDays:   total - used,
		Consumed:        consumed,
		Remaining:       remaining,
		WithinProbation: used <= policy.ProbationDays,
	}

	if reason == TerminationClientRequest && !s.WithinProbation {
		s.Penalty = remaining.MulDiv(int64(policy.ClientPenaltyPercent), 100)
	}
	s.Refund = remaining - s.Penalty
	return s, nil
}

// ProrateSalary returns the share of a monthly salary for the days worked in a month.
func ProrateSalary(monthly Money, days, daysInMonth int) Money {
	if days <= 0 || daysInMonth <= 0 {
		return 0
	}
	if days >= daysInMonth {
		return monthly
	}
	return monthly.MulDiv(int64(days), int64(daysInMonth))
}
