package domain

import "time"

// Marketer is credited with originating contracts and earns a commission on their fee.
type Marketer struct {
	ID                string
	Name              string
	Phone             string
	UserID            *string
	CommissionPercent int
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Commission returns the marketer's share of a contract fee.
func (m *Marketer) Commission(fee Money) Money {
	return fee.MulDiv(int64(m.CommissionPercent), 100)
}
