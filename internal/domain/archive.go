package domain

import "time"

// ArchivedContract is a contract moved out of the live table.
type ArchivedContract struct {
	ArchiveID  string
	Contract   Contract
	ArchivedAt time.Time
	ArchivedBy *string
	Reason     string
}

// ArchivedWorker is a worker moved out of the live table.
type ArchivedWorker struct {
	ArchiveID  string
	Worker     Worker
	ArchivedAt time.Time
	ArchivedBy *string
	Reason     string
}

// ArchiveDuplicate describes an archived record that should not be there:
// either the original row is still live, or the same row was archived more than once.
type ArchiveDuplicate struct {
	Kind       string
	OriginalID string
	ArchiveIDs []string
	LiveExists bool
}
