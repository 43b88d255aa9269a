package domain

import "time"

// Client is the household that hires a worker.
type Client struct {
	ID         string
	FullName   string
	NationalID string
	Phone      string
	City       string
	Address    string
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
