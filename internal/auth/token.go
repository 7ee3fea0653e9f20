// Package auth implements the gateway's session-token subsystem: signing
// and verifying JWT session tokens, resolving bearer tokens to a user
// identity, and exchanging WorkWechat authorization codes for sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the signed payload of a session token. The identity
// lives in user_id; sub mirrors it for standard consumers.
type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens with a process-wide secret.
// It is safe for concurrent use; nothing is mutated after construction.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenCodec builds a codec for the given secret and algorithm name
// (e.g. "HS256"). An empty secret or unknown algorithm is a configuration
// fault and not retryable.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token codec: signing secret is empty")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("token codec: unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token codec: algorithm %q is not an HMAC method", algorithm)
	}
	return &TokenCodec{secret: []byte(secret), method: method}, nil
}

// Encode mints a signed token for subject with the given time to live.
// The returned expiry is always strictly after the issue time.
func (tc *TokenCodec) Encode(subject string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := sessionClaims{
		UserID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(tc.method, claims).SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Decode verifies a token and returns the embedded subject. Expired tokens
// always classify as TokenExpired; every other verification failure is
// TokenMalformed. A verified token without a user_id claim is
// IdentityUnresolvable.
func (tc *TokenCodec) Decode(token string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return tc.secret, nil
	}, jwt.WithValidMethods([]string{tc.method.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errs.Auth(errs.TokenExpired)
		}
		return "", errs.Auth(errs.TokenMalformed)
	}
	if !parsed.Valid {
		return "", errs.Auth(errs.TokenMalformed)
	}
	if claims.UserID == "" {
		return "", errs.Auth(errs.IdentityUnresolvable)
	}
	return claims.UserID, nil
}
