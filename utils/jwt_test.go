package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")

	tok, err := GenerateAccessToken(42, "user")
	require.NoError(t, err)

	_, claims, err := ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims["id"])
	assert.Equal(t, "user", claims["role"])
	assert.NotEmpty(t, claims["jti"])
}

func TestAccessTokenExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")

	tok, err := GenerateAccessTokenWithExpiry(1, "user", -time.Minute)
	require.NoError(t, err)

	_, _, err = ValidateAccessToken(tok)
	assert.EqualError(t, err, "token expired")
}

func TestAccessTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")
	tok, err := GenerateAccessToken(7, "user")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "a-completely-different-secret")
	_, _, err = ValidateAccessToken(tok)
	assert.EqualError(t, err, "invalid token")
}

func TestAccessTokenTampered(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-0123456789abcdef")
	tok, err := GenerateAccessToken(7, "user")
	require.NoError(t, err)

	_, _, err = ValidateAccessToken(tok + "x")
	assert.Error(t, err)
}
