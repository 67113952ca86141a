package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := CreateAccessToken("u-1", "alice", time.Minute)
	require.NoError(t, err)

	claims, err := ParseValidate(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Sub)
	assert.Equal(t, "alice", claims.Username)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := CreateAccessToken("u-1", "alice", -time.Minute)
	require.NoError(t, err)

	_, err = ParseValidate(tok)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok, err := CreateAccessToken("u-1", "alice", time.Minute)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, err = ParseValidate(tok)
	assert.Error(t, err)
}
