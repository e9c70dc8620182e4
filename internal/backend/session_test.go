package backend

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionFromTokens(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	access := makeToken(t, jwt.MapClaims{
		"sub":           "user-1",
		"email":         "alice@example.com",
		"user_metadata": map[string]any{"username": "alice"},
		"exp":           exp.Unix(),
	})

	sess, err := sessionFromTokens(access, "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", sess.UserID)
	require.Equal(t, "alice@example.com", sess.Email)
	require.Equal(t, "alice", sess.Username)
	require.Equal(t, "refresh-1", sess.RefreshToken)
	require.True(t, sess.EmailConfirmed)
	require.WithinDuration(t, exp, sess.ExpiresAt, time.Second)
	require.False(t, sess.Expired())
}

func TestSessionFromTokensMinimalClaims(t *testing.T) {
	access := makeToken(t, jwt.MapClaims{"sub": "user-2"})

	sess, err := sessionFromTokens(access, "")
	require.NoError(t, err)
	require.Equal(t, "user-2", sess.UserID)
	require.Empty(t, sess.Email)
	require.Empty(t, sess.Username)
	// No exp claim means the token never reads as expired.
	require.False(t, sess.Expired())
}

func TestSessionFromTokensExpired(t *testing.T) {
	access := makeToken(t, jwt.MapClaims{
		"sub": "user-3",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	sess, err := sessionFromTokens(access, "refresh-3")
	require.NoError(t, err)
	require.True(t, sess.Expired())
}

func TestSessionFromTokensMalformed(t *testing.T) {
	_, err := sessionFromTokens("not-a-jwt", "")
	require.Error(t, err)
}
