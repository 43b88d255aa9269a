// Package notify delivers email notifications through Resend.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/events"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendMailer builds a mailer for apiKey.
func NewResendMailer(apiKey, from string, logger *zap.Logger) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// Send implements Mailer.
func (m *ResendMailer) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return nil
	}
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn("resend rate limit exceeded",
				zap.String("limit", rateLimitErr.Limit),
				zap.String("reset", rateLimitErr.Reset))
			return fmt.Errorf("email rate limit exceeded: %w", err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}
	m.logger.Info("email sent", zap.String("email_id", sent.Id), zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

// LogMailer only logs; used when no API key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(_ context.Context, to []string, subject, _ string) error {
	m.logger.Info("email delivery disabled", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

// NewMailer picks Resend when an API key is configured.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	if cfg.ResendAPIKey == "" {
		return NewLogMailer(logger)
	}
	return NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom, logger)
}

// Renderer renders the embedded email templates.
type Renderer struct {
	agency    string
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(agency string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{agency: agency, templates: tmpl}, nil
}

func (r *Renderer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ContractExpiring renders the expiry digest.
func (r *Renderer) ContractExpiring(p events.ContractExpiringPayload) (string, string, error) {
	body, err := r.render("contract_expiring.html", struct {
		Agency string
		events.ContractExpiringPayload
	}{r.agency, p})
	subject := fmt.Sprintf("%d contract(s) ending within %d days", len(p.Contracts), p.WindowDays)
	return subject, body, err
}

// ContractTerminated renders a termination notice.
func (r *Renderer) ContractTerminated(p events.ContractTerminatedPayload) (string, string, error) {
	body, err := r.render("contract_terminated.html", struct {
		Agency string
		events.ContractTerminatedPayload
	}{r.agency, p})
	return "Contract " + p.Number + " terminated", body, err
}

// PasswordReset renders the reset code email.
func (r *Renderer) PasswordReset(name, token string, ttl time.Duration) (string, string, error) {
	body, err := r.render("password_reset.html", map[string]any{
		"Agency":     r.agency,
		"Name":       name,
		"Token":      token,
		"TTLMinutes": int(ttl.Minutes()),
	})
	return "Password reset", body, err
}
