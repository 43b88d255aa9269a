package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/observability"
)

// Dependencies are the services the periodic jobs call into.
type Dependencies struct {
	Contracts ContractJobs
	Archive   ArchiveSweeper
	Backups   BackupTaker
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Schedule decides which periodic jobs run.
type Schedule struct {
	ArchiveAfterDays int
	BackupsEnabled   bool
}

// ScheduleFromConfig derives the schedule from application settings.
func ScheduleFromConfig(cfg *config.Config) Schedule {
	return Schedule{
		ArchiveAfterDays: cfg.Contracts.ArchiveAfterDays,
		BackupsEnabled:   cfg.Backup.ScheduleEnabled,
	}
}

// Migrate brings River's own tables up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}

// NewWorkers registers a worker for every job kind the schedule can enqueue.
func NewWorkers(deps Dependencies) (*river.Workers, error) {
	if deps.Contracts == nil {
		return nil, errors.New("contract jobs are required")
	}
	workers := river.NewWorkers()
	river.AddWorker[ContractExpirySweepArgs](workers, ContractExpirySweepWorker{Contracts: deps.Contracts, Metrics: deps.Metrics, Logger: deps.Logger})
	river.AddWorker[ContractExpiryNoticeArgs](workers, ContractExpiryNoticeWorker{Contracts: deps.Contracts, Metrics: deps.Metrics, Logger: deps.Logger})
	if deps.Archive != nil {
		river.AddWorker[ArchiveSweepArgs](workers, ArchiveSweepWorker{Archive: deps.Archive, Metrics: deps.Metrics, Logger: deps.Logger})
	}
	if deps.Backups != nil {
		river.AddWorker[ScheduledBackupArgs](workers, ScheduledBackupWorker{Backups: deps.Backups, Metrics: deps.Metrics, Logger: deps.Logger})
	}
	return workers, nil
}

// PeriodicJobs returns the recurring schedule. The expiry sweep also runs at start
// so a restart after downtime catches up immediately.
func PeriodicJobs(s Schedule) []*river.PeriodicJob {
	jobs := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(time.Hour),
			func() (river.JobArgs, *river.InsertOpts) { return ContractExpirySweepArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) { return ContractExpiryNoticeArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
	if s.ArchiveAfterDays > 0 {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) { return ArchiveSweepArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	if s.BackupsEnabled {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return ScheduledBackupArgs{}, &river.InsertOpts{MaxAttempts: 2}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs
}

// NewClientConfig builds the River configuration.
func NewClientConfig(workers *river.Workers, cfg config.JobsConfig, schedule Schedule) *river.Config {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}
	return &river.Config{
		Workers:      workers,
		PeriodicJobs: PeriodicJobs(schedule),
		MaxAttempts:  3,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
	}
}

// Scheduler owns the River client.
type Scheduler struct {
	client *river.Client[pgx.Tx]
	logger *zap.Logger
}

// NewScheduler wires workers and periodic jobs onto a River client.
func NewScheduler(pool *pgxpool.Pool, deps Dependencies, cfg config.JobsConfig, schedule Schedule) (*Scheduler, error) {
	workers, err := NewWorkers(deps)
	if err != nil {
		return nil, err
	}
	client, err := river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, cfg, schedule))
	if err != nil {
		return nil, fmt.Errorf("river client: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{client: client, logger: logger}, nil
}

// Start begins fetching jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("start river: %w", err)
	}
	s.logger.Info("background jobs started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	return s.client.Stop(ctx)
}
