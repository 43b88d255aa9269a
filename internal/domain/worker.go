package domain

import "time"

// WorkerStatus tracks whether a worker can be placed with a client.
type WorkerStatus string

const (
	WorkerStatusAvailable   WorkerStatus = "AVAILABLE"
	WorkerStatusContracted  WorkerStatus = "CONTRACTED"
	WorkerStatusUnavailable WorkerStatus = "UNAVAILABLE"
	WorkerStatusAbsconded   WorkerStatus = "ABSCONDED"
)

// Valid reports whether s is a known worker status.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerStatusAvailable, WorkerStatusContracted, WorkerStatusUnavailable, WorkerStatusAbsconded:
		return true
	}
	return false
}

// Worker is a domestic-labor employee record.
type Worker struct {
	ID              string
	FullName        string
	Nationality     string
	PassportNumber  string
	ResidencyNumber string
	ResidencyExpiry *time.Time
	Profession      string
	Religion        string
	BirthDate       *time.Time
	Phone           string
	Status          WorkerStatus
	MonthlySalary   Money
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResidencyExpired reports whether the residency permit has lapsed on the given day.
func (w *Worker) ResidencyExpired(today time.Time) bool {
	if w.ResidencyExpiry == nil {
		return false
	}
	return TruncateDay(*w.ResidencyExpiry).Before(TruncateDay(today))
}
