package dto

import (
	"time"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// ContractRequest drafts a contract.
type ContractRequest struct {
	WorkerID      string  `json:"worker_id" validate:"required"`
	ClientID      string  `json:"client_id" validate:"required"`
	MarketerID    *string `json:"marketer_id"`
	StartDate     string  `json:"start_date" validate:"required,date"`
	EndDate       string  `json:"end_date" validate:"required,date"`
	Fee           string  `json:"fee" validate:"omitempty,money"`
	MonthlySalary string  `json:"monthly_salary" validate:"omitempty,money"`
	Notes         string  `json:"notes" validate:"max=2000"`
}

// ContractTermsRequest changes a pending contract; only notes are accepted once active.
type ContractTermsRequest struct {
	MarketerID    *string `json:"marketer_id"`
	ClearMarketer bool    `json:"clear_marketer"`
	StartDate     *string `json:"start_date" validate:"omitempty,date"`
	EndDate       *string `json:"end_date" validate:"omitempty,date"`
	Fee           *string `json:"fee" validate:"omitempty,money"`
	MonthlySalary *string `json:"monthly_salary" validate:"omitempty,money"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

// CancelRequest carries an optional reason.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// TerminateRequest ends an active contract early.
type TerminateRequest struct {
	Date   string                   `json:"date" validate:"omitempty,date"`
	Reason domain.TerminationReason `json:"reason" validate:"required"`
	Notes  string                   `json:"notes" validate:"max=2000"`
}

// RenewRequest describes the follow-up contract.
type RenewRequest struct {
	EndDate       string `json:"end_date" validate:"required,date"`
	Fee           string `json:"fee" validate:"omitempty,money"`
	MonthlySalary string `json:"monthly_salary" validate:"omitempty,money"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// ContractResponse describes a contract.
type ContractResponse struct {
	ID                string                    `json:"id"`
	Number            string                    `json:"number"`
	WorkerID          string                    `json:"worker_id"`
	ClientID          string                    `json:"client_id"`
	MarketerID        *string                   `json:"marketer_id"`
	StartDate         string                    `json:"start_date"`
	EndDate           string                    `json:"end_date"`
	Fee               string                    `json:"fee"`
	MonthlySalary     string                    `json:"monthly_salary"`
	Status            domain.ContractStatus     `json:"status"`
	TerminationDate   *string                   `json:"termination_date"`
	TerminationReason *domain.TerminationReason `json:"termination_reason"`
	Refund            string                    `json:"refund"`
	Penalty           string                    `json:"penalty"`
	Notes             string                    `json:"notes"`
	CreatedBy         *string                   `json:"created_by"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// NewContractResponse maps a contract.
func NewContractResponse(c *domain.Contract) ContractResponse {
	return ContractResponse{
		ID:                c.ID,
		Number:            c.Number,
		WorkerID:          c.WorkerID,
		ClientID:          c.ClientID,
		MarketerID:        c.MarketerID,
		StartDate:         FormatDate(c.StartDate),
		EndDate:           FormatDate(c.EndDate),
		Fee:               c.Fee.String(),
		MonthlySalary:     c.MonthlySalary.String(),
		Status:            c.Status,
		TerminationDate:   FormatDatePtr(c.TerminationDate),
		TerminationReason: c.TerminationReason,
		Refund:            c.Refund.String(),
		Penalty:           c.Penalty.String(),
		Notes:             c.Notes,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// SettlementResponse reports the money owed on an early termination.
type SettlementResponse struct {
	TotalDays       int    `json:"total_days"`
	UsedDays        int    `json:"used_days"`
	RemainingDays   int    `json:"remaining_days"`
	Consumed        string `json:"consumed"`
	Remaining       string `json:"remaining"`
	Penalty         string `json:"penalty"`
	Refund          string `json:"refund"`
	WithinProbation bool   `json:"within_probation"`
}

// NewSettlementResponse maps a settlement.
func NewSettlementResponse(s domain.Settlement) SettlementResponse {
	return SettlementResponse{
		TotalDays:       s.TotalDays,
		UsedDays:        s.UsedDays,
		RemainingDays:   s.RemainingDays,
		Consumed:        s.Consumed.String(),
		Remaining:       s.Remaining.String(),
		Penalty:         s.Penalty.String(),
		Refund:          s.Refund.String(),
		WithinProbation: s.WithinProbation,
	}
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                    `json:"id"`
	ChangedBy  *string                   `json:"changed_by"`
	ChangeType domain.ContractChangeType `json:"change_type"`
	OldValue   map[string]any            `json:"old_value"`
	NewValue   map[string]any            `json:"new_value"`
	CreatedAt  time.Time                 `json:"created_at"`
}

// NewHistoryResponse maps a history entry.
func NewHistoryResponse(h *domain.ContractHistory) HistoryResponse {
	return HistoryResponse{
		ID:         h.ID,
		ChangedBy:  h.ChangedBy,
		ChangeType: h.ChangeType,
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		CreatedAt:  h.CreatedAt,
	}
}

// ExpiringResponse is an active contract nearing its end date.
type ExpiringResponse struct {
	Contract      ContractResponse `json:"contract"`
	WorkerName    string           `json:"worker_name"`
	ClientName    string           `json:"client_name"`
	RemainingDays int              `json:"remaining_days"`
}

// PayrollGenerateRequest names the period to compute.
type PayrollGenerateRequest struct {
	Period string `json:"period" validate:"required,period"`
}

// PayrollAdjustRequest sets manual amounts on an unpaid entry.
type PayrollAdjustRequest struct {
	Allowances string `json:"allowances" validate:"omitempty,money"`
	Deductions string `json:"deductions" validate:"omitempty,money"`
}

// PayrollEntryResponse describes one payroll row.
type PayrollEntryResponse struct {
	ID         string     `json:"id"`
	WorkerID   string     `json:"worker_id"`
	WorkerName string     `json:"worker_name"`
	ContractID *string    `json:"contract_id"`
	Period     string     `json:"period"`
	DaysWorked int        `json:"days_worked"`
	BaseSalary string     `json:"base_salary"`
	Allowances string     `json:"allowances"`
	Deductions string     `json:"deductions"`
	Net        string     `json:"net"`
	Paid       bool       `json:"paid"`
	PaidAt     *time.Time `json:"paid_at"`
}

// NewPayrollEntryResponse maps a payroll entry.
func NewPayrollEntryResponse(p *domain.PayrollEntry) PayrollEntryResponse {
	return PayrollEntryResponse{
		ID:         p.ID,
		WorkerID:   p.WorkerID,
		WorkerName: p.WorkerName,
		ContractID: p.ContractID,
		Period:     p.Period,
		DaysWorked: p.DaysWorked,
		BaseSalary: p.BaseSalary.String(),
		Allowances: p.Allowances.String(),
		Deductions: p.Deductions.String(),
		Net:        p.Net.String(),
		Paid:       p.Paid,
		PaidAt:     p.PaidAt,
	}
}

// ArchiveRequest carries the archiving reason.
type ArchiveRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ArchivedContractResponse describes an archived contract.
type ArchivedContractResponse struct {
	ArchiveID  string           `json:"archive_id"`
	Contract   ContractResponse `json:"contract"`
	ArchivedAt time.Time        `json:"archived_at"`
	ArchivedBy *string          `json:"archived_by"`
	Reason     string           `json:"reason"`
}

// NewArchivedContractResponse maps an archived contract.
func NewArchivedContractResponse(a *domain.ArchivedContract) ArchivedContractResponse {
	return ArchivedContractResponse{
		ArchiveID:  a.ArchiveID,
		Contract:   NewContractResponse(&a.Contract),
		ArchivedAt: a.ArchivedAt,
		ArchivedBy: a.ArchivedBy,
		Reason:     a.Reason,
	}
}

// ArchivedWorkerResponse describes an archived worker.
type ArchivedWorkerResponse struct {
	ArchiveID  string         `json:"archive_id"`
	Worker     WorkerResponse `json:"worker"`
	ArchivedAt time.Time      `json:"archived_at"`
	ArchivedBy *string        `json:"archived_by"`
	Reason     string         `json:"reason"`
}

// NewArchivedWorkerResponse maps an archived worker.
func NewArchivedWorkerResponse(a *domain.ArchivedWorker) ArchivedWorkerResponse {
	return ArchivedWorkerResponse{
		ArchiveID:  a.ArchiveID,
		Worker:     NewWorkerResponse(&a.Worker),
		ArchivedAt: a.ArchivedAt,
		ArchivedBy: a.ArchivedBy,
		Reason:     a.Reason,
	}
}

// DuplicateResponse reports a record archived more than once or still live.
type DuplicateResponse struct {
	Kind       string   `json:"kind"`
	OriginalID string   `json:"original_id"`
	ArchiveIDs []string `json:"archive_ids"`
	LiveExists bool     `json:"live_exists"`
}

// NewDuplicateResponse maps a duplicate report line.
func NewDuplicateResponse(d *domain.ArchiveDuplicate) DuplicateResponse {
	return DuplicateResponse{Kind: d.Kind, OriginalID: d.OriginalID, ArchiveIDs: d.ArchiveIDs, LiveExists: d.LiveExists}
}

// BackupRestoreRequest guards restores with an explicit confirmation.
type BackupRestoreRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}
