package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	tok, err := svc.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	tok, err := NewTokenService("secret-a").GenerateToken(42)
	require.NoError(t, err)

	_, err = NewTokenService("secret-b").ValidateToken(tok)
	assert.Error(t, err)
}

func TestTokenGarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret")
	_, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)
}
