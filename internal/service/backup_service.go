package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/backup"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/observability"
	apperrors "github.com/spec-kit/recruitment-office/pkg/util/errorutil"
)

// BackupService exposes database dumps to the API, CLI and scheduler.
type BackupService struct {
	manager *backup.Manager
	metrics *observability.Metrics
	events  eventPublisher
	logger  *zap.Logger
}

// BackupDependencies bundles collaborators.
type BackupDependencies struct {
	Manager    *backup.Manager
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewBackupService constructs the service.
func NewBackupService(deps BackupDependencies) *BackupService {
	logger := orNop(deps.Logger)
	return &BackupService{
		manager: deps.Manager,
		metrics: deps.Metrics,
		events:  eventPublisher{dispatcher: deps.Dispatcher, logger: logger},
		logger:  logger,
	}
}

// Create takes a backup now.
func (s *BackupService) Create(ctx context.Context, actorID *string, trigger string) (*backup.Backup, error) {
	ctx, span := observability.StartSpan(ctx, "backup.create")
	defer span.End()

	started := time.Now()
	b, err := s.manager.Create(ctx, trigger)
	s.metrics.ObserveBackup("create", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		s.logger.Error("backup failed", zap.String("trigger", trigger), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	span.SetAttributes(attribute.String("backup.name", b.Name), attribute.Int64("backup.size_bytes", b.SizeBytes))
	s.logger.Info("backup created", zap.String("name", b.Name), zap.Int64("size_bytes", b.SizeBytes))
	s.events.publish(ctx, events.Event{
		Type:      events.EventBackupCompleted,
		SubjectID: b.Name,
		Actor:     actorOf(actorID),
		Payload:   events.BackupPayload{Name: b.Name, SizeBytes: b.SizeBytes, Trigger: b.Metadata.Trigger},
	})
	return b, nil
}

// List returns backups newest first.
func (s *BackupService) List() ([]backup.Backup, error) {
	list, err := s.manager.List()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return list, nil
}

// Open streams a backup file for download.
func (s *BackupService) Open(name string) (io.ReadCloser, *backup.Backup, error) {
	rc, b, err := s.manager.Open(name)
	if err != nil {
		return nil, nil, backupError(err, name)
	}
	return rc, b, nil
}

// Restore replaces the database with a backup, returning the safety backup taken beforehand.
func (s *BackupService) Restore(ctx context.Context, name string) (*backup.Backup, error) {
	ctx, span := observability.StartSpan(ctx, "backup.restore")
	defer span.End()
	span.SetAttributes(attribute.String("backup.name", name))

	started := time.Now()
	safety, err := s.manager.Restore(ctx, name)
	s.metrics.ObserveBackup("restore", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		fields := []zap.Field{zap.String("name", name), zap.Error(err)}
		if safety != nil {
			fields = append(fields, zap.String("safety_backup", safety.Name))
		}
		s.logger.Error("restore failed", fields...)
		return safety, backupError(err, name)
	}
	s.logger.Warn("database restored", zap.String("name", name), zap.String("safety_backup", safety.Name))
	return safety, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(name string) error {
	if err := s.manager.Delete(name); err != nil {
		return backupError(err, name)
	}
	return nil
}

// Cleanup removes backups past their retention.
func (s *BackupService) Cleanup(dryRun bool) ([]backup.Backup, error) {
	removed, err := s.manager.Cleanup(dryRun)
	s.metrics.ObserveBackup("cleanup", err, 0)
	if err != nil {
		return removed, apperrors.NewInternalError(err)
	}
	if len(removed) > 0 && !dryRun {
		s.logger.Info("old backups removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func backupError(err error, name string) error {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		return apperrors.NewNotFound("backup", map[string]any{"name": name})
	case errors.Is(err, backup.ErrInvalidName):
		return apperrors.NewValidationError("invalid backup name", map[string]any{"name": name})
	default:
		return apperrors.NewInternalError(err)
	}
}
