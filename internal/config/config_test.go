package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("NOTIFY_ADMIN_EMAILS", " a@example.com, ,b@example.com ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 25, cfg.Contracts.ClientPenaltyPercent)
	assert.Equal(t, 90, cfg.Contracts.ProbationDays)
	assert.Equal(t, "session", cfg.Auth.SessionCookieName)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notification.AdminEmails)
	assert.Equal(t, float64(480), cfg.Auth.AccessTokenTTL().Minutes())
}

func TestLoadRejectsShortSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadAcceptsLongSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "12345678901234567890123456789012")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestValidatePenaltyPercent(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CONTRACT_CLIENT_PENALTY_PERCENT", "150")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTRACT_CLIENT_PENALTY_PERCENT")
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "nope")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	t.Setenv("SOME_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("SOME_INT", 7))
}
