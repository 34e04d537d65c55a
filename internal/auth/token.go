package auth

import (
	"errors"
	"fmt"
	"time"

	"jamwathq/internal/apperr"
	"jamwathq/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidOrExpiredToken is the only token error clients see.
	ErrInvalidOrExpiredToken = apperr.New(apperr.InvalidOrExpiredToken, "Invalid or expired token")

	ErrInvalidToken = fmt.Errorf("token signature or format invalid: %w", ErrInvalidOrExpiredToken)
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrInvalidOrExpiredToken)
)

const DefaultTokenTTL = 24 * time.Hour

// Claims is the payload of an admin bearer token.
type Claims struct {
	AdminID string      `json:"id"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 admin tokens. It holds no per-token
// state.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Issue(admin *models.Admin) (string, error) {
	issuedAt := t.now()
	claims := Claims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns ErrTokenExpired for a well-signed token past its expiry
// and ErrInvalidToken for everything else. Both carry the same public error.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.AdminID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
