package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("0123456789abcdef0123456789abcdef", 30)

	issued, err := tm.GenerateToken("user-1", "title-1")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tm.ParseToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "title-1", claims.JobTitleID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	issued, err := NewTokenManager("secret-a", 30).GenerateToken("u", "t")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 30).ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	issued, err := tm.GenerateToken("u", "t")
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(issued.Token)
	assert.Error(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("s3cretpass", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cretpass"))
	assert.Error(t, ComparePassword(hash, "other"))

	assert.ErrorIs(t, CheckPasswordPolicy("short1"), ErrWeakPassword)
	assert.ErrorIs(t, CheckPasswordPolicy("lettersonly"), ErrWeakPassword)
	assert.ErrorIs(t, CheckPasswordPolicy("1234567890"), ErrWeakPassword)
	assert.NoError(t, CheckPasswordPolicy("letters123"))
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(2, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))

	l.now = func() time.Time { return start.Add(time.Minute) }
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
}
