// Package auth provides session tokens, password hashing, and the GitHub
// OAuth flow.
//
// Sessions are stateless JWTs held in an HttpOnly cookie: the token carries
// the account's internal ID (the "sub" claim) plus the display username, is
// signed with a server-held secret, and expires after 30 days. The server
// verifies the signature on every request — no session store, no DB lookup.
//
// The ID embedded in the token is always the canonical store ID produced by
// registration or GitHub reconciliation, never GitHub's own numeric ID, so
// ownership checks downstream compare like with like.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "codecast"

// SessionTTL is how long an issued session token stays valid. After expiry
// the user signs in again; there is no refresh flow.
const SessionTTL = 30 * 24 * time.Hour

// Identity is what a verified session token proves: which account the
// request acts for, plus the display username baked in at issue time.
type Identity struct {
	UserID   string
	Username string
}

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the default 30-day lifetime.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	return NewTokenServiceWithTTL(secret, SessionTTL)
}

// NewTokenServiceWithTTL creates a TokenService with a custom lifetime.
// Used by tests and for deployments that configure a shorter session.
func NewTokenServiceWithTTL(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload: registered claims plus the display username.
// The account ID rides in the standard "sub" claim.
type claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given identity.
func (s *TokenService) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: cannot issue token without a user ID")
	}

	now := time.Now()
	c := claims{
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a session token, returning the identity it
// encodes. It fails closed: a tampered signature, an unexpected algorithm,
// a wrong issuer, a missing subject, or an expired token all return an
// error and a zero Identity — never a partially-trusted result.
//
// Pinning the accepted algorithms with WithValidMethods prevents algorithm
// confusion attacks (a token claiming alg "none" is rejected outright).
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Username: c.Username}, nil
}
