package events

import (
	"time"

	"github.com/spec-kit/recruitment-office/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventContractCreated       EventType = "contract_created"
	EventContractStatusChanged EventType = "contract_status_changed"
	EventContractTerminated    EventType = "contract_terminated"
	EventContractRenewed       EventType = "contract_renewed"
	EventContractExpiring      EventType = "contract_expiring"
	EventWorkerStatusChanged   EventType = "worker_status_changed"
	EventRecordArchived        EventType = "record_archived"
	EventRecordRestored        EventType = "record_restored"
	EventBackupCompleted       EventType = "backup_completed"
)

// Actor identifies who triggered an event; UserID is nil for background jobs.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ContractStatusChangedPayload payload.
type ContractStatusChangedPayload struct {
	Number    string                `json:"number"`
	OldStatus domain.ContractStatus `json:"old_status"`
	NewStatus domain.ContractStatus `json:"new_status"`
}

// ContractTerminatedPayload payload.
type ContractTerminatedPayload struct {
	Number     string                   `json:"number"`
	WorkerName string                   `json:"worker_name"`
	ClientName string                   `json:"client_name"`
	Reason     domain.TerminationReason `json:"reason"`
	Date       time.Time                `json:"date"`
	Refund     domain.Money             `json:"refund"`
	Penalty    domain.Money             `json:"penalty"`
}

// ContractExpiringPayload lists active contracts ending soon.
type ContractExpiringPayload struct {
	WindowDays int               `json:"window_days"`
	Contracts  []ExpiringSummary `json:"contracts"`
}

// ExpiringSummary is one line of an expiry notice.
type ExpiringSummary struct {
	Number        string    `json:"number"`
	WorkerName    string    `json:"worker_name"`
	ClientName    string    `json:"client_name"`
	EndDate       time.Time `json:"end_date"`
	RemainingDays int       `json:"remaining_days"`
}

// ContractRenewedPayload payload.
type ContractRenewedPayload struct {
	PreviousID string `json:"previous_id"`
	NewID      string `json:"new_id"`
	NewNumber  string `json:"new_number"`
}

// WorkerStatusChangedPayload payload.
type WorkerStatusChangedPayload struct {
	OldStatus domain.WorkerStatus `json:"old_status"`
	NewStatus domain.WorkerStatus `json:"new_status"`
}

// ArchivePayload describes an archive or restore.
type ArchivePayload struct {
	Kind      string `json:"kind"`
	ArchiveID string `json:"archive_id"`
	Reason    string `json:"reason,omitempty"`
}

// BackupPayload describes a finished backup.
type BackupPayload struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Trigger   string `json:"trigger"`
}
