package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/events"
	"github.com/spec-kit/recruitment-office/internal/notify"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     notify.Mailer
	renderer   *notify.Renderer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer notify.Mailer, renderer *notify.Renderer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		renderer:   renderer,
		logger:     orNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventContractCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventContractStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventContractRenewed, n.logEvent)
	n.dispatcher.Subscribe(events.EventWorkerStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventRecordArchived, n.logEvent)
	n.dispatcher.Subscribe(events.EventRecordRestored, n.logEvent)
	n.dispatcher.Subscribe(events.EventBackupCompleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventContractTerminated, n.handleContractTerminated)
	n.dispatcher.Subscribe(events.EventContractExpiring, n.handleContractExpiring)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.UserID))
	}
	n.logger.Info("domain event", fields...)
	return nil
}

func (n *NotificationService) handleContractTerminated(ctx context.Context, event events.Event) error {
	_ = n.logEvent(ctx, event)
	payload, ok := event.Payload.(events.ContractTerminatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.emailAdmins(ctx, event, func() (string, string, error) {
		return n.renderer.ContractTerminated(payload)
	})
}

func (n *NotificationService) handleContractExpiring(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ContractExpiringPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("contracts expiring", zap.Int("count", len(payload.Contracts)), zap.Int("window_days", payload.WindowDays))
	if len(payload.Contracts) == 0 {
		return nil
	}
	return n.emailAdmins(ctx, event, func() (string, string, error) {
		return n.renderer.ContractExpiring(payload)
	})
}

func (n *NotificationService) emailAdmins(ctx context.Context, event events.Event, render func() (string, string, error)) error {
	if n.mailer == nil || n.renderer == nil || len(n.cfg.AdminEmails) == 0 {
		n.logger.Debug("email notification skipped", zap.String("event_type", string(event.Type)))
		return nil
	}
	subject, body, err := render()
	if err != nil {
		return fmt.Errorf("render %s email: %w", event.Type, err)
	}
	if err := n.mailer.Send(ctx, n.cfg.AdminEmails, subject, body); err != nil {
		return fmt.Errorf("send %s email: %w", event.Type, err)
	}
	return nil
}
