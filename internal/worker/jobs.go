package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/backup"
	"github.com/spec-kit/recruitment-office/internal/observability"
)

const (
	KindContractExpirySweep  = "contract_expiry_sweep"
	KindContractExpiryNotice = "contract_expiry_notice"
	KindArchiveSweep         = "archive_sweep"
	KindScheduledBackup      = "scheduled_backup"
)

// ContractJobs is the part of the contract service the scheduler drives.
type ContractJobs interface {
	ExpireDue(ctx context.Context) (int, error)
	NotifyExpiring(ctx context.Context) (int, error)
}

// ArchiveSweeper moves stale closed contracts into the archive.
type ArchiveSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// BackupTaker creates and prunes database dumps.
type BackupTaker interface {
	Create(ctx context.Context, actorID *string, trigger string) (*backup.Backup, error)
	Cleanup(dryRun bool) ([]backup.Backup, error)
}

type ContractExpirySweepArgs struct{}

func (ContractExpirySweepArgs) Kind() string { return KindContractExpirySweep }

// ContractExpirySweepWorker marks ACTIVE contracts past their end date EXPIRED.
type ContractExpirySweepWorker struct {
	river.WorkerDefaults[ContractExpirySweepArgs]
	Contracts ContractJobs
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

func (w ContractExpirySweepWorker) Work(ctx context.Context, job *river.Job[ContractExpirySweepArgs]) error {
	n, err := w.Contracts.ExpireDue(ctx)
	return finish(w.Metrics, w.Logger, KindContractExpirySweep, job.Attempt, n, err)
}

type ContractExpiryNoticeArgs struct{}

func (ContractExpiryNoticeArgs) Kind() string { return KindContractExpiryNotice }

// ContractExpiryNoticeWorker publishes the daily expiring-contracts digest.
type ContractExpiryNoticeWorker struct {
	river.WorkerDefaults[ContractExpiryNoticeArgs]
	Contracts ContractJobs
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

func (w ContractExpiryNoticeWorker) Work(ctx context.Context, job *river.Job[ContractExpiryNoticeArgs]) error {
	n, err := w.Contracts.NotifyExpiring(ctx)
	return finish(w.Metrics, w.Logger, KindContractExpiryNotice, job.Attempt, n, err)
}

type ArchiveSweepArgs struct{}

func (ArchiveSweepArgs) Kind() string { return KindArchiveSweep }

type ArchiveSweepWorker struct {
	river.WorkerDefaults[ArchiveSweepArgs]
	Archive ArchiveSweeper
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

func (w ArchiveSweepWorker) Work(ctx context.Context, job *river.Job[ArchiveSweepArgs]) error {
	n, err := w.Archive.Sweep(ctx)
	return finish(w.Metrics, w.Logger, KindArchiveSweep, job.Attempt, n, err)
}

type ScheduledBackupArgs struct{}

func (ScheduledBackupArgs) Kind() string { return KindScheduledBackup }

// ScheduledBackupWorker dumps the database and then applies retention.
type ScheduledBackupWorker struct {
	river.WorkerDefaults[ScheduledBackupArgs]
	Backups BackupTaker
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

func (w ScheduledBackupWorker) Work(ctx context.Context, job *river.Job[ScheduledBackupArgs]) error {
	if _, err := w.Backups.Create(ctx, nil, backup.TriggerScheduled); err != nil {
		return finish(w.Metrics, w.Logger, KindScheduledBackup, job.Attempt, 0, err)
	}
	removed, err := w.Backups.Cleanup(false)
	return finish(w.Metrics, w.Logger, KindScheduledBackup, job.Attempt, len(removed), err)
}

// Timeout keeps a hung pg_dump from holding the job forever.
func (ScheduledBackupWorker) Timeout(*river.Job[ScheduledBackupArgs]) time.Duration {
	return 30 * time.Minute
}

func finish(metrics *observability.Metrics, logger *zap.Logger, kind string, attempt, affected int, err error) error {
	metrics.RecordJob(kind, err)
	if logger == nil {
		logger = zap.NewNop()
	}
	if err != nil {
		logger.Error("job failed", zap.String("kind", kind), zap.Int("attempt", attempt), zap.Error(err))
		return fmt.Errorf("%s: %w", kind, err)
	}
	logger.Info("job finished", zap.String("kind", kind), zap.Int("affected", affected))
	return nil
}
