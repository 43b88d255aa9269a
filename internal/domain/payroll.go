package domain

import (
	"fmt"
	"time"
)

// PeriodLayout is the YYYY-MM format used for payroll periods.
const PeriodLayout = "2006-01"

// ParsePeriod returns the first and the (exclusive) last day of a payroll period.
func ParsePeriod(period string) (time.Time, time.Time, error) {
	start, err := time.Parse(PeriodLayout, period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: expected YYYY-MM", period)
	}
	start = TruncateDay(start)
	return start, start.AddDate(0, 1, 0), nil
}

// PayrollEntry is one worker's pay for one period.
type PayrollEntry struct {
	ID         string
	WorkerID   string
	WorkerName string
	ContractID *string
	Period     string
	DaysWorked int
	BaseSalary Money
	Allowances Money
	Deductions Money
	Net        Money
	Paid       bool
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recalculate refreshes Net from its parts.
func (p *PayrollEntry) Recalculate() {
	p.Net = p.BaseSalary + p.Allowances - p.Deductions
}
