package domain

import "time"

// ContractChangeType captures what changed in a history entry.
type ContractChangeType string

const (
	ChangeTypeCreated  ContractChangeType = "CREATED"
	ChangeTypeStatus   ContractChangeType = "STATUS_CHANGE"
	ChangeTypeTerms    ContractChangeType = "TERMS_CHANGE"
	ChangeTypeRenewal  ContractChangeType = "RENEWAL"
	ChangeTypeArchived ContractChangeType = "ARCHIVED"
	ChangeTypeRestored ContractChangeType = "RESTORED"
)

// ContractHistory is an immutable audit trail entry for a contract.
type ContractHistory struct {
	ID         string
	ContractID string
	ChangedBy  *string
	ChangeType ContractChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
