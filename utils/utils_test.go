package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(secret, "Alice", []string{"user", "bot"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", claims.Username)
	assert.True(t, HasGroup(claims.Groups, "bot"))
}

func TestValidateJWTRejects(t *testing.T) {
	expired, err := GenerateJWT(secret, "Alice", nil, -time.Minute)
	require.NoError(t, err)
	other, err := GenerateJWT([]byte("other"), "Alice", nil, time.Hour)
	require.NoError(t, err)
	anonymous, err := GenerateJWT(secret, "", nil, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":     expired,
		"wrong key":   other,
		"no username": anonymous,
		"garbage":     "not-a-token",
	} {
		_, err := ValidateJWT(secret, token)
		assert.Error(t, err, name)
	}
}

func TestNoSecret(t *testing.T) {
	_, err := GenerateJWT(nil, "Alice", nil, time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
	_, err = ValidateJWT(nil, "x")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestIsValidProtocol(t *testing.T) {
	assert.True(t, IsValidProtocol("https"))
	assert.True(t, IsValidProtocol("auto"))
	assert.False(t, IsValidProtocol("HTTPS"))
	assert.False(t, IsValidProtocol(""))
}

func TestHasGroup(t *testing.T) {
	assert.True(t, HasGroup([]string{"user", "bot"}, "bot"))
	assert.False(t, HasGroup([]string{"user", "Bot"}, "bot"))
	assert.False(t, HasGroup(nil, "bot"))
}
