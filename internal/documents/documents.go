// Package documents renders contracts, settlement letters and worker profiles
// as DOCX and PDF files.
package documents

import (
	"time"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
)

// Letterhead is printed at the top of every document.
type Letterhead struct {
	Name    string
	Address string
	Phone   string
	License string
}

// LetterheadFromConfig maps the agency settings.
func LetterheadFromConfig(cfg config.DocumentConfig) Letterhead {
	return Letterhead{
		Name:    cfg.AgencyName,
		Address: cfg.AgencyAddress,
		Phone:   cfg.AgencyPhone,
		License: cfg.AgencyLicense,
	}
}

// ContractData is everything a contract document shows.
type ContractData struct {
	Contract domain.Contract
	Worker   domain.Worker
	Client   domain.Client
	Marketer *domain.Marketer
	Policy   domain.SettlementPolicy
}

// SettlementData backs the termination settlement letter.
type SettlementData struct {
	Contract   domain.Contract
	Worker     domain.Worker
	Client     domain.Client
	Date       time.Time
	Reason     domain.TerminationReason
	Settlement domain.Settlement
	// Preview marks letters computed for a termination that has not happened yet.
	Preview bool
}

// WorkerProfileData backs the worker profile sheet.
type WorkerProfileData struct {
	Worker    domain.Worker
	Contracts []domain.Contract
}

// Generator renders documents with a fixed letterhead.
type Generator struct {
	agency Letterhead
	now    func() time.Time
}

// NewGenerator builds a Generator. A nil now uses time.Now.
func NewGenerator(agency Letterhead, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{agency: agency, now: now}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var reasonLabels = map[domain.TerminationReason]string{
	domain.TerminationClientRequest:   "Client request",
	domain.TerminationWorkerAbsconded: "Worker absconded",
	domain.TerminationWorkerRefused:   "Worker refused to work",
	domain.TerminationAgency:          "Agency decision",
}

// ReasonLabel returns a readable termination reason.
func ReasonLabel(r domain.TerminationReason) string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}
