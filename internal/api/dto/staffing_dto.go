package dto

import (
	"time"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// WorkerRequest creates or replaces a worker.
type WorkerRequest struct {
	FullName        string  `json:"full_name" validate:"required,max=200"`
	Nationality     string  `json:"nationality" validate:"required,len=2"`
	PassportNumber  string  `json:"passport_number" validate:"max=30"`
	ResidencyNumber string  `json:"residency_number" validate:"required,max=30"`
	ResidencyExpiry *string `json:"residency_expiry" validate:"omitempty,date"`
	Profession      string  `json:"profession" validate:"max=100"`
	Religion        string  `json:"religion" validate:"max=50"`
	BirthDate       *string `json:"birth_date" validate:"omitempty,date"`
	Phone           string  `json:"phone" validate:"max=30"`
	MonthlySalary   string  `json:"monthly_salary" validate:"omitempty,money"`
	Notes           string  `json:"notes" validate:"max=2000"`
}

// WorkerStatusRequest changes a worker's availability.
type WorkerStatusRequest struct {
	Status domain.WorkerStatus `json:"status" validate:"required"`
}

// WorkerResponse describes a worker.
type WorkerResponse struct {
	ID              string              `json:"id"`
	FullName        string              `json:"full_name"`
	Nationality     string              `json:"nationality"`
	PassportNumber  string              `json:"passport_number"`
	ResidencyNumber string              `json:"residency_number"`
	ResidencyExpiry *string             `json:"residency_expiry"`
	Profession      string              `json:"profession"`
	Religion        string              `json:"religion"`
	BirthDate       *string             `json:"birth_date"`
	Phone           string              `json:"phone"`
	Status          domain.WorkerStatus `json:"status"`
	MonthlySalary   string              `json:"monthly_salary"`
	Notes           string              `json:"notes"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewWorkerResponse maps a worker.
func NewWorkerResponse(w *domain.Worker) WorkerResponse {
	return WorkerResponse{
		ID:              w.ID,
		FullName:        w.FullName,
		Nationality:     w.Nationality,
		PassportNumber:  w.PassportNumber,
		ResidencyNumber: w.ResidencyNumber,
		ResidencyExpiry: FormatDatePtr(w.ResidencyExpiry),
		Profession:      w.Profession,
		Religion:        w.Religion,
		BirthDate:       FormatDatePtr(w.BirthDate),
		Phone:           w.Phone,
		Status:          w.Status,
		MonthlySalary:   w.MonthlySalary.String(),
		Notes:           w.Notes,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// ClientRequest creates or replaces a client.
type ClientRequest struct {
	FullName   string `json:"full_name" validate:"required,max=200"`
	NationalID string `json:"national_id" validate:"required,max=20"`
	Phone      string `json:"phone" validate:"max=30"`
	City       string `json:"city" validate:"max=100"`
	Address    string `json:"address" validate:"max=500"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// ClientResponse describes a client.
type ClientResponse struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	NationalID string    `json:"national_id"`
	Phone      string    `json:"phone"`
	City       string    `json:"city"`
	Address    string    `json:"address"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewClientResponse maps a client.
func NewClientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:         c.ID,
		FullName:   c.FullName,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		City:       c.City,
		Address:    c.Address,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// MarketerRequest creates or replaces a marketer.
type MarketerRequest struct {
	Name              string  `json:"name" validate:"required,max=200"`
	Phone             string  `json:"phone" validate:"max=30"`
	UserID            *string `json:"user_id"`
	CommissionPercent int     `json:"commission_percent" validate:"min=0,max=100"`
	Active            *bool   `json:"active"`
}

// MarketerResponse describes a marketer.
type MarketerResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	UserID            *string   `json:"user_id"`
	CommissionPercent int       `json:"commission_percent"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewMarketerResponse maps a marketer.
func NewMarketerResponse(m *domain.Marketer) MarketerResponse {
	return MarketerResponse{
		ID:                m.ID,
		Name:              m.Name,
		Phone:             m.Phone,
		UserID:            m.UserID,
		CommissionPercent: m.CommissionPercent,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt,
	}
}

// NationalityRequest sets a nationality's salary defaults.
type NationalityRequest struct {
	Name           string `json:"name" validate:"required,max=100"`
	MonthlySalary  string `json:"monthly_salary" validate:"required,money"`
	RecruitmentFee string `json:"recruitment_fee" validate:"omitempty,money"`
}

// NationalityResponse describes a nationality.
type NationalityResponse struct {
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	MonthlySalary  string    `json:"monthly_salary"`
	RecruitmentFee string    `json:"recruitment_fee"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewNationalityResponse maps a nationality.
func NewNationalityResponse(n *domain.Nationality) NationalityResponse {
	return NationalityResponse{
		Code:           n.Code,
		Name:           n.Name,
		MonthlySalary:  n.MonthlySalary.String(),
		RecruitmentFee: n.RecruitmentFee.String(),
		UpdatedAt:      n.UpdatedAt,
	}
}

// FormatDate renders a calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// FormatDatePtr renders an optional calendar date.
func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatDate(*t)
	return &s
}
