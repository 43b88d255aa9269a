package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/recruitment-office/internal/config"
	"github.com/spec-kit/recruitment-office/internal/domain"
	"github.com/spec-kit/recruitment-office/internal/events"
)

func TestResendMailerSend(t *testing.T) {
	var got resend.SendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	}))
	defer server.Close()

	m := NewResendMailer("key", "office@example.com", zap.NewNop())
	base, err := url.Parse(server.URL)
	require.NoError(t, err)
	m.client.BaseURL = base

	require.NoError(t, m.Send(context.Background(), []string{"admin@example.com"}, "Hello", "<p>x</p>"))
	assert.Equal(t, "office@example.com", got.From)
	assert.Equal(t, []string{"admin@example.com"}, got.To)
	assert.Equal(t, "Hello", got.Subject)
}

func TestResendMailerSkipsEmptyRecipients(t *testing.T) {
	m := NewResendMailer("key", "office@example.com", zap.NewNop())
	assert.NoError(t, m.Send(context.Background(), nil, "s", "b"))
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	_, ok := NewMailer(config.NotificationConfig{}, zap.NewNop()).(*LogMailer)
	assert.True(t, ok)
	_, ok = NewMailer(config.NotificationConfig{ResendAPIKey: "k"}, zap.NewNop()).(*ResendMailer)
	assert.True(t, ok)
}

func TestRendererTemplates(t *testing.T) {
	r, err := NewRenderer("Al Noor Recruitment")
	require.NoError(t, err)

	subject, body, err := r.ContractExpiring(events.ContractExpiringPayload{
		WindowDays: 30,
		Contracts: []events.ExpiringSummary{{
			Number: "CNT-1", WorkerName: "Maria <b>", ClientName: "Ahmed",
			EndDate: domain.Date(2024, time.May, 1), RemainingDays: 3,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "1 contract(s) ending within 30 days", subject)
	assert.Contains(t, body, "CNT-1")
	assert.Contains(t, body, "2024-05-01")
	assert.Contains(t, body, "Maria &lt;b&gt;")

	_, body, err = r.ContractTerminated(events.ContractTerminatedPayload{
		Number: "CNT-2", Reason: domain.TerminationClientRequest, Date: domain.Date(2024, time.June, 1),
		Refund: 160500, Penalty: 53500,
	})
	require.NoError(t, err)
	assert.Contains(t, body, "1605.00")
	assert.Contains(t, body, "535.00")

	_, body, err = r.PasswordReset("Sara", "abc123", 30*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, body, "abc123")
	assert.Contains(t, body, "30 minutes")
}
