// Package auth provides JWT session tokens, bcrypt password hashing, the
// bearer-token middleware, and the Google federated identity provider.
//
// AUTHENTICATION FLOWS:
//  1. Email/password: POST /api/auth/register or /login → server verifies the
//     bcrypt hash and issues a JWT.
//  2. Federated: the SPA signs the user in with Google and POSTs the Google
//     ID token to /api/auth/verify-token → server verifies it against
//     Google's tokeninfo endpoint, creates or links the local account, and
//     issues its own JWT.
//
// Either way the client ends up holding a self-issued bearer token; every
// protected endpoint validates only that token — the upstream provider is
// never consulted again until the next sign-in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is the session token lifetime. Seven days matches the product's
// "stay signed in for a week" behaviour; after expiry the client must
// re-authenticate.
const tokenTTL = 7 * 24 * time.Hour

const issuer = "productivity-tracker"

// TokenService handles JWT creation and validation. It holds the HMAC secret
// used to sign and verify tokens — the same secret must be used for both.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims; the internal user ID travels in the
// standard "sub" (Subject) claim.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and sufficient
// for a single-server deployment where the signer and verifier share a secret.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, tokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry. Used by tests to
// mint already-expired tokens without sleeping.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
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

// Validate parses and verifies a JWT string and returns the userID from the
// "sub" claim.
//
// The jwt library checks the signature, expiry, and issuer. Passing
// jwt.WithValidMethods pins the algorithm to HS256 — without it an attacker
// could attempt an algorithm-confusion attack with an unsigned token.
func (s *TokenService) Validate(tokenStr string) (string, error) {
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
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
