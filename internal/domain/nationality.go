package domain

import "time"

// Nationality carries the salary reference used when hiring workers of that nationality.
type Nationality struct {
	Code           string
	Name           string
	MonthlySalary  Money
	RecruitmentFee Money
	UpdatedAt      time.Time
}
