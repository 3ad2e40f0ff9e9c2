package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies a session: Subject is the user ID and ID the session ID.
type Claims = jwt.RegisteredClaims

// TokenSigner issues and verifies HS256 session tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenSigner creates a signer. Tokens expire ttl after issue.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), ttl: ttl, issuer: "steel-spark"}
}

// Sign returns a token for the session and its expiry.
func (s *TokenSigner) Sign(userID, sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Issuer:    s.issuer,
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
func (s *TokenSigner) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("token is missing session claims")
	}
	return claims, nil
}
