package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestNewSignerValidation(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.Error(t, err)
	_, err = NewSigner("secret", 0)
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)
	gameID, playerID := uuid.New(), uuid.New()

	token, err := s.Issue(gameID, playerID)
	require.NoError(t, err)

	sess, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, gameID, sess.GameID)
	assert.Equal(t, playerID, sess.PlayerID)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
}

func TestVerifyExpired(t *testing.T) {
	now := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)
	token, err := s.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	a := newTestSigner(t, now)
	b, err := NewSigner("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	s := newTestSigner(t, time.Now())
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		GameID: uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	s := newTestSigner(t, time.Now())
	for _, tok := range []string{"", "   ", "not.a.jwt"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}
