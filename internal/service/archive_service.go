package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/observability"
	"github.com/spec-kit/recruitment-office/internal/repository"
	"github.com/spec-kit/recruitment-office/internal/sanitize"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

const (
	archiveKindContract = "contract"
	archiveKindWorker   = "worker"
)

// ArchiveService moves finished records out of the live tables and back.
type ArchiveService struct {
	archive   repository.ArchiveRepository
	contracts repository.ContractRepository
	history   repository.ContractHistoryRepository
	workers   repository.WorkerRepository
	clients   repository.ClientRepository
	marketers repository.MarketerRepository
	tx        repository.Transactor
	events    eventPublisher
	afterDays int
	clock     Clock
	logger    *zap.Logger
}

// ArchiveDependencies bundles collaborators.
type ArchiveDependencies struct {
	ArchiveRepo  repository.ArchiveRepository
	ContractRepo repository.ContractRepository
	HistoryRepo  repository.ContractHistoryRepository
	WorkerRepo   repository.WorkerRepository
	ClientRepo   repository.ClientRepository
	MarketerRepo repository.MarketerRepository
	Tx           repository.Transactor
	Dispatcher   events.Dispatcher
	// ArchiveAfterDays enables Sweep when positive.
	ArchiveAfterDays int
	Clock            Clock
	Logger           *zap.Logger
}

// NewArchiveService constructs the service.
func NewArchiveService(deps ArchiveDependencies) *ArchiveService {
	logger := orNop(deps.Logger)
	return &ArchiveService{
		archive:   deps.ArchiveRepo,
		contracts: deps.ContractRepo,
		history:   deps.HistoryRepo,
		workers:   deps.WorkerRepo,
		clients:   deps.ClientRepo,
		marketers: deps.MarketerRepo,
		tx:        deps.Tx,
		events:    eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		afterDays: deps.ArchiveAfterDays,
		clock:     deps.Clock,
		logger:    logger,
	}
}

// ArchiveContract moves a finished contract to the archive.
func (s *ArchiveService) ArchiveContract(ctx context.Context, actorID *string, contractID, reason string) (*domain.ArchivedContract, error) {
	ctx, span := observability.StartSpan(ctx, "archive.contract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	var archived *domain.ArchivedContract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.archiveContract(ctx, actorID, contractID, sanitize.Text(reason))
		archived = a
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.publishArchived(ctx, actorID, archiveKindContract, contractID, archived.ArchiveID, archived.Reason)
	return archived, nil
}

func (s *ArchiveService) archiveContract(ctx context.Context, actorID *string, contractID, reason string) (*domain.ArchivedContract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "contract", map[string]any{"id": contractID})
	}
	if !c.Status.Terminal() {
		return nil, apperrors.NewConflict("only expired, terminated or cancelled contracts can be archived",
			map[string]any{"status": c.Status})
	}
	archived, err := s.archive.ArchiveContract(ctx, contractID, actorID, reason)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.history.Create(ctx, &domain.ContractHistory{
		ContractID: contractID,
		ChangedBy:  actorID,
		ChangeType: domain.ChangeTypeArchived,
		NewValue:   map[string]any{"archive_id": archived.ArchiveID, "reason": reason},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	return archived, nil
}

// ArchiveWorker moves a worker, together with all of their finished contracts, to the archive.
func (s *ArchiveService) ArchiveWorker(ctx context.Context, actorID *string, workerID, reason string) (*domain.ArchivedWorker, error) {
	ctx, span := observability.StartSpan(ctx, "archive.worker")
	defer span.End()
	span.SetAttributes(attribute.String("worker.id", workerID))

	reason = sanitize.Text(reason)
	var (
		archived  *domain.ArchivedWorker
		contracts []*domain.ArchivedContract
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.workers.GetByID(ctx, workerID); err != nil {
			return apperrors.NotFoundOr(err, "worker", map[string]any{"id": workerID})
		}
		open, err := s.contracts.HasOpenContract(ctx, workerID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if open {
			return apperrors.NewConflict("worker has a pending or active contract", map[string]any{"worker_id": workerID})
		}
		list, err := s.contracts.List(ctx, repository.ContractFilter{WorkerID: &workerID, Unbounded: true})
		if err != nil {
			return apperrors.MapError(err)
		}
		for _, c := range list {
			a, err := s.archiveContract(ctx, actorID, c.ID, reason)
			if err != nil {
				return err
			}
			contracts = append(contracts, a)
		}
		archived, err = s.archive.ArchiveWorker(ctx, workerID, actorID, reason)
		return apperrors.MapError(err)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, a := range contracts {
		s.publishArchived(ctx, actorID, archiveKindContract, a.Contract.ID, a.ArchiveID, reason)
	}
	s.publishArchived(ctx, actorID, archiveKindWorker, workerID, archived.ArchiveID, reason)
	s.logger.Info("worker archived", zap.String("worker_id", workerID), zap.Int("contracts", len(contracts)))
	return archived, nil
}

// RestoreContract brings an archived contract back. Its worker and client must be live.
func (s *ArchiveService) RestoreContract(ctx context.Context, actorID *string, archiveID string) (*domain.Contract, error) {
	ctx, span := observability.StartSpan(ctx, "archive.restore_contract")
	defer span.End()

	var restored *domain.Contract
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		archived, err := s.archive.GetContract(ctx, archiveID)
		if err != nil {
			return apperrors.NotFoundOr(err, "archived contract", map[string]any{"archive_id": archiveID})
		}
		c := archived.Contract
		if err := s.requireLive(ctx, "worker", c.WorkerID, func(ctx context.Context) error {
			_, err := s.workers.GetByID(ctx, c.WorkerID)
			return err
		}); err != nil {
			return err
		}
		if err := s.requireLive(ctx, "client", c.ClientID, func(ctx context.Context) error {
			_, err := s.clients.GetByID(ctx, c.ClientID)
			return err
		}); err != nil {
			return err
		}
		if c.MarketerID != nil {
			if err := s.requireLive(ctx, "marketer", *c.MarketerID, func(ctx context.Context) error {
				_, err := s.marketers.GetByID(ctx, *c.MarketerID)
				return err
			}); err != nil {
				return err
			}
		}
		if _, err := s.contracts.GetByID(ctx, c.ID); err == nil {
			return apperrors.NewConflict("contract is already live; purge the duplicate archive entry", map[string]any{"contract_id": c.ID})
		}

		restored, err = s.archive.RestoreContract(ctx, archiveID)
		if err != nil {
			return apperrors.MapError(err)
		}
		return apperrors.MapError(s.history.Create(ctx, &domain.ContractHistory{
			ContractID: restored.ID,
			ChangedBy:  actorID,
			ChangeType: domain.ChangeTypeRestored,
			OldValue:   map[string]any{"archive_id": archiveID},
		}))
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.publishRestored(ctx, actorID, archiveKindContract, restored.ID, archiveID)
	return restored, nil
}

func (s *ArchiveService) requireLive(ctx context.Context, kind, id string, lookup func(context.Context) error) error {
	if err := lookup(ctx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewConflict(fmt.Sprintf("the contract's %s is not live; restore it first", kind),
				map[string]any{kind + "_id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// RestoreWorker brings an archived worker back. Their contracts stay archived until restored one by one.
func (s *ArchiveService) RestoreWorker(ctx context.Context, actorID *string, archiveID string) (*domain.Worker, error) {
	ctx, span := observability.StartSpan(ctx, "archive.restore_worker")
	defer span.End()

	var restored *domain.Worker
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		archived, err := s.archive.GetWorker(ctx, archiveID)
		if err != nil {
			return apperrors.NotFoundOr(err, "archived worker", map[string]any{"archive_id": archiveID})
		}
		if _, err := s.workers.GetByID(ctx, archived.Worker.ID); err == nil {
			return apperrors.NewConflict("worker is already live; purge the duplicate archive entry", map[string]any{"worker_id": archived.Worker.ID})
		}
		if other, err := s.workers.GetByResidencyNumber(ctx, archived.Worker.ResidencyNumber); err == nil {
			return apperrors.NewConflict("another worker holds this residency number", map[string]any{"worker_id": other.ID})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		restored, err = s.archive.RestoreWorker(ctx, archiveID)
		return apperrors.MapError(err)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.publishRestored(ctx, actorID, archiveKindWorker, restored.ID, archiveID)
	return restored, nil
}

// GetContract fetches an archived contract.
func (s *ArchiveService) GetContract(ctx context.Context, archiveID string) (*domain.ArchivedContract, error) {
	a, err := s.archive.GetContract(ctx, archiveID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "archived contract", map[string]any{"archive_id": archiveID})
	}
	return a, nil
}

// GetWorker fetches an archived worker.
func (s *ArchiveService) GetWorker(ctx context.Context, archiveID string) (*domain.ArchivedWorker, error) {
	a, err := s.archive.GetWorker(ctx, archiveID)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "archived worker", map[string]any{"archive_id": archiveID})
	}
	return a, nil
}

// ListContracts lists archived contracts.
func (s *ArchiveService) ListContracts(ctx context.Context, filter repository.ArchiveFilter) ([]domain.ArchivedContract, error) {
	list, err := s.archive.ListContracts(ctx, filter)
	return list, apperrors.MapError(err)
}

// ListWorkers lists archived workers.
func (s *ArchiveService) ListWorkers(ctx context.Context, filter repository.ArchiveFilter) ([]domain.ArchivedWorker, error) {
	list, err := s.archive.ListWorkers(ctx, filter)
	return list, apperrors.MapError(err)
}

// Duplicates reports archive rows that are still live or archived more than once.
func (s *ArchiveService) Duplicates(ctx context.Context) ([]domain.ArchiveDuplicate, error) {
	list, err := s.archive.Duplicates(ctx)
	return list, apperrors.MapError(err)
}

// PurgeDuplicates deletes the rows Duplicates reports, keeping the newest copy of records that are not live.
func (s *ArchiveService) PurgeDuplicates(ctx context.Context) (int64, error) {
	n, err := s.archive.PurgeDuplicates(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if n > 0 {
		s.logger.Warn("archive duplicates purged", zap.Int64("rows", n))
	}
	return n, nil
}

// Sweep archives contracts that have been finished for longer than the configured number of days.
func (s *ArchiveService) Sweep(ctx context.Context) (int, error) {
	if s.afterDays <= 0 {
		return 0, nil
	}
	ctx, span := observability.StartSpan(ctx, "archive.sweep")
	defer span.End()

	cutoff := s.clock.today().AddDate(0, 0, -s.afterDays)
	list, err := s.contracts.List(ctx, repository.ContractFilter{
		Statuses: []domain.ContractStatus{
			domain.ContractStatusExpired,
			domain.ContractStatusTerminated,
			domain.ContractStatusCancelled,
		},
		UpdatedBefore: &cutoff,
		Unbounded:     true,
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	reason := fmt.Sprintf("finished more than %d days ago", s.afterDays)
	var (
		archived int
		errs     []error
	)
	for _, c := range list {
		if _, err := s.ArchiveContract(ctx, nil, c.ID, reason); err != nil {
			s.logger.Error("auto-archive failed", zap.String("contract_id", c.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		archived++
	}
	span.SetAttributes(attribute.Int("archive.count", archived))
	return archived, errors.Join(errs...)
}

func (s *ArchiveService) publishArchived(ctx context.Context, actorID *string, kind, subjectID, archiveID, reason string) {
	s.events.publish(ctx, events.Event{
		Type:      events.EventRecordArchived,
		SubjectID: subjectID,
		Actor:     actorOf(actorID),
		Payload:   events.ArchivePayload{Kind: kind, ArchiveID: archiveID, Reason: reason},
	})
}

func (s *ArchiveService) publishRestored(ctx context.Context, actorID *string, kind, subjectID, archiveID string) {
	s.events.publish(ctx, events.Event{
		Type:      events.EventRecordRestored,
		SubjectID: subjectID,
		Actor:     actorOf(actorID),
		Payload:   events.ArchivePayload{Kind: kind, ArchiveID: archiveID},
	})
}
