package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoundTrip(t *testing.T) {
	m, err := NewManager("secret", "social-graph")
	require.NoError(t, err)

	token, err := m.GenerateAccessToken("42", "alice", time.Minute)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateRejects(t *testing.T) {
	m, err := NewManager("secret", "social-graph")
	require.NoError(t, err)

	expired, err := m.GenerateAccessToken("42", "alice", -time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other, err := NewManager("other", "social-graph")
	require.NoError(t, err)
	forged, err := other.GenerateAccessToken("42", "alice", time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewManager("secret", "someone-else")
	require.NoError(t, err)
	token, err := wrongIssuer.GenerateAccessToken("42", "alice", time.Minute)
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "42", Type: "refresh"})
	signed, err := refresh.SignedString([]byte("secret"))
	require.NoError(t, err)
	noIssuer, err := NewManager("secret", "")
	require.NoError(t, err)
	_, err = noIssuer.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerNeedsSecret(t *testing.T) {
	_, err := NewManager("", "")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
