package auth

import (
	"testing"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAdmin() *models.Admin {
	return &models.Admin{ID: "a1", Email: "admin@jamwathq.com", Role: models.RoleModerator}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer := NewTokenIssuer("secret", 0, clock.Now)
	assert.Equal(t, 24*time.Hour, issuer.TTL())

	token, err := issuer.Issue(testAdmin())
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)
	assert.Equal(t, "admin@jamwathq.com", claims.Email)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.True(t, claims.ExpiresAt.Time.Equal(clock.now.Add(24*time.Hour)))
}

func TestTokenIssuer_ExpiredAfter24Hours(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer := NewTokenIssuer("secret", 24*time.Hour, clock.Now)

	token, err := issuer.Issue(testAdmin())
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.Equal(t, apperr.InvalidOrExpiredToken, apperr.KindOf(err))
}

func TestTokenIssuer_RejectsTampering(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, nil)
	other := NewTokenIssuer("other-secret", time.Hour, nil)

	token, err := other.Issue(testAdmin())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Same public message for both failure modes.
	assert.Equal(t, "Invalid or expired token", apperr.As(err).Message)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, nil)

	claims := Claims{
		AdminID: "a1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
