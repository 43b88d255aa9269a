package domain

import "time"

// ContractStatus enumerates contract lifecycle states.
type ContractStatus string

const (
	ContractStatusPending    ContractStatus = "PENDING"
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusExpired    ContractStatus = "EXPIRED"
	ContractStatusTerminated ContractStatus = "TERMINATED"
	ContractStatusCancelled  ContractStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible.
func (s ContractStatus) Terminal() bool {
	switch s {
	case ContractStatusExpired, ContractStatusTerminated, ContractStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known contract status.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusPending, ContractStatusActive, ContractStatusExpired, ContractStatusTerminated, ContractStatusCancelled:
		return true
	}
	return false
}

var allowedTransitions = map[ContractStatus][]ContractStatus{
	ContractStatusPending:    {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:     {ContractStatusExpired, ContractStatusTerminated},
	ContractStatusExpired:    {},
	ContractStatusTerminated: {},
	ContractStatusCancelled:  {},
}

// CanTransition reports whether a contract may move from one status to the next.
func CanTransition(current, next ContractStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TerminationReason explains why a contract ended early.
type TerminationReason string

const (
	TerminationClientRequest   TerminationReason = "CLIENT_REQUEST"
	TerminationWorkerAbsconded TerminationReason = "WORKER_ABSCONDED"
	TerminationWorkerRefused   TerminationReason = "WORKER_REFUSED"
	TerminationAgency          TerminationReason = "AGENCY"
)

// Valid reports whether r is a known termination reason.
func (r TerminationReason) Valid() bool {
	switch r {
	case TerminationClientRequest, TerminationWorkerAbsconded, TerminationWorkerRefused, TerminationAgency:
		return true
	}
	return false
}

// Contract links a worker, a client and optionally a marketer for a date range and fee.
// EndDate is exclusive.
type Contract struct {
	ID                string
	Number            string
	WorkerID          string
	ClientID          string
	MarketerID        *string
	StartDate         time.Time
	EndDate           time.Time
	Fee               Money
	MonthlySalary     Money
	Status            ContractStatus
	TerminationDate   *time.Time
	TerminationReason *TerminationReason
	Refund            Money
	Penalty           Money
	Notes             string
	CreatedBy         *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TotalDays is the contracted duration in days, never less than one.
func (c *Contract) TotalDays() int {
	days := DaysBetween(c.StartDate, c.EndDate)
	if days < 1 {
		return 1
	}
	return days
}

// RemainingDays returns the days left before EndDate, zero once it has passed.
func (c *Contract) RemainingDays(today time.Time) int {
	days := DaysBetween(today, c.EndDate)
	if days < 0 {
		return 0
	}
	if total := c.TotalDays(); days > total {
		return total
	}
	return days
}

// ExpiringWithin reports whether an active contract ends within the given number of days.
func (c *Contract) ExpiringWithin(today time.Time, days int) bool {
	if c.Status != ContractStatusActive {
		return false
	}
	left := DaysBetween(today, c.EndDate)
	return left >= 0 && left <= days
}

// DueToExpire reports whether an active contract has reached its end date.
func (c *Contract) DueToExpire(today time.Time) bool {
	return c.Status == ContractStatusActive && !TruncateDay(c.EndDate).After(TruncateDay(today))
}

// Overlaps reports whether the contract covers any day in [from, to).
func (c *Contract) Overlaps(from, to time.Time) bool {
	return c.StartDate.Before(to) && from.Before(c.EffectiveEnd())
}

// EffectiveEnd is the termination date when terminated early, otherwise EndDate.
func (c *Contract) EffectiveEnd() time.Time {
	if c.TerminationDate != nil && c.TerminationDate.Before(c.EndDate) {
		return *c.TerminationDate
	}
	return c.EndDate
}
