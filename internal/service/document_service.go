package service

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/documents"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/observability"
	"github.com/spec-kit/recruitment-office/internal/repository"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// Document formats.
const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// DocumentService loads records and renders them as files.
type DocumentService struct {
	generator *documents.Generator
	contracts *ContractService
	workers   repository.WorkerRepository
	clients   repository.ClientRepository
	marketers repository.MarketerRepository
	contractR repository.ContractRepository
	policy    domain.SettlementPolicy
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// DocumentDependencies bundles collaborators.
type DocumentDependencies struct {
	Generator    *documents.Generator
	Contracts    *ContractService
	WorkerRepo   repository.WorkerRepository
	ClientRepo   repository.ClientRepository
	MarketerRepo repository.MarketerRepository
	ContractRepo repository.ContractRepository
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(deps DocumentDependencies) *DocumentService {
	return &DocumentService{
		generator: deps.Generator,
		contracts: deps.Contracts,
		workers:   deps.WorkerRepo,
		clients:   deps.ClientRepo,
		marketers: deps.MarketerRepo,
		contractR: deps.ContractRepo,
		policy:    deps.Contracts.policy,
		metrics:   deps.Metrics,
		logger:    orNop(deps.Logger),
	}
}

func (s *DocumentService) contractData(ctx context.Context, id string) (documents.ContractData, error) {
	c, err := s.contracts.Get(ctx, id)
	if err != nil {
		return documents.ContractData{}, err
	}
	worker, err := s.workers.GetByID(ctx, c.WorkerID)
	if err != nil {
		return documents.ContractData{}, apperrors.NotFoundOr(err, "worker", map[string]any{"id": c.WorkerID})
	}
	client, err := s.clients.GetByID(ctx, c.ClientID)
	if err != nil {
		return documents.ContractData{}, apperrors.NotFoundOr(err, "client", map[string]any{"id": c.ClientID})
	}
	data := documents.ContractData{Contract: *c, Worker: *worker, Client: *client, Policy: s.policy}
	if c.MarketerID != nil {
		if m, err := s.marketers.GetByID(ctx, *c.MarketerID); err == nil {
			data.Marketer = m
		}
	}
	return data, nil
}

// ContractDocument writes the contract in the requested format and returns its file name.
func (s *DocumentService) ContractDocument(ctx context.Context, w io.Writer, id, format string) (string, error) {
	if format != FormatDOCX && format != FormatPDF {
		return "", apperrors.NewValidationError("unsupported document format", map[string]any{"format": format})
	}
	ctx, span := observability.StartSpan(ctx, "documents.contract")
	defer span.End()
	span.SetAttributes(attribute.String("document.format", format), attribute.String("contract.id", id))

	data, err := s.contractData(ctx, id)
	if err != nil {
		return "", err
	}
	if format == FormatDOCX {
		err = s.generator.ContractDOCX(w, data)
	} else {
		err = s.generator.ContractPDF(w, data)
	}
	if err != nil {
		span.RecordError(err)
		return "", apperrors.NewInternalError(err)
	}
	s.metrics.RecordDocument("contract", format)
	return data.Contract.Number + "." + format, nil
}

// SettlementLetter writes the settlement letter of a terminated contract, or an
// estimate for an active one when date and reason are given.
func (s *DocumentService) SettlementLetter(ctx context.Context, w io.Writer, id string, date time.Time, reason domain.TerminationReason) (string, error) {
	ctx, span := observability.StartSpan(ctx, "documents.settlement")
	defer span.End()

	data, err := s.contractData(ctx, id)
	if err != nil {
		return "", err
	}
	c := data.Contract
	letter := documents.SettlementData{Contract: c, Worker: data.Worker, Client: data.Client}
	switch {
	case c.Status == domain.ContractStatusTerminated && c.TerminationDate != nil && c.TerminationReason != nil:
		letter.Date = *c.TerminationDate
		letter.Reason = *c.TerminationReason
		letter.Settlement, err = domain.CalculateSettlement(&c, letter.Date, letter.Reason, s.policy)
		if err != nil {
			return "", apperrors.NewInternalError(err)
		}
		letter.Settlement.Refund = c.Refund
		letter.Settlement.Penalty = c.Penalty
	case c.Status == domain.ContractStatusActive:
		if reason == "" {
			return "", apperrors.NewValidationError("reason is required for a settlement estimate", nil)
		}
		_, settlement, err := s.contracts.SettlementPreview(ctx, id, date, reason)
		if err != nil {
			return "", err
		}
		if date.IsZero() {
			date = s.contracts.clock.today()
		}
		letter.Date, letter.Reason, letter.Settlement, letter.Preview = domain.TruncateDay(date), reason, settlement, true
	default:
		return "", apperrors.NewConflict("settlement letters exist for terminated or active contracts only", map[string]any{"status": c.Status})
	}

	if err := s.generator.SettlementPDF(w, letter); err != nil {
		span.RecordError(err)
		return "", apperrors.NewInternalError(err)
	}
	s.metrics.RecordDocument("settlement", FormatPDF)
	return c.Number + "-settlement.pdf", nil
}

// WorkerProfile writes a worker's profile sheet.
func (s *DocumentService) WorkerProfile(ctx context.Context, w io.Writer, workerID string) (string, error) {
	ctx, span := observability.StartSpan(ctx, "documents.worker_profile")
	defer span.End()

	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		return "", apperrors.NotFoundOr(err, "worker", map[string]any{"id": workerID})
	}
	contracts, err := s.contractR.List(ctx, repository.ContractFilter{WorkerID: &workerID, Unbounded: true})
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if err := s.generator.WorkerProfilePDF(w, documents.WorkerProfileData{Worker: *worker, Contracts: contracts}); err != nil {
		span.RecordError(err)
		return "", apperrors.NewInternalError(err)
	}
	s.metrics.RecordDocument("worker_profile", FormatPDF)
	return "worker-" + worker.ResidencyNumber + ".pdf", nil
}
