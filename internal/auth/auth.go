// Package auth verifies the bearer credentials that identify a rider and
// their barn.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredential means no bearer token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential means a token was presented but failed
	// verification.
	ErrInvalidCredential = errors.New("invalid credential")
)

const issuer = "barnlog"

// Identity is who a verified credential speaks for.
type Identity struct {
	RiderID string `json:"riderId"`
	BarnID  string `json:"barnId"`
}

type claims struct {
	Barn string `json:"barn"`
	jwt.RegisteredClaims
}

// Verifier signs and verifies HS256 credentials with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier for secret. An empty secret is rejected.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Sign issues a credential for id that expires after ttl.
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Barn: id.BarnID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.RiderID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// Verify checks a raw token and returns the identity it carries.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, ErrMissingCredential
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if c.Subject == "" || c.Barn == "" {
		return Identity{}, fmt.Errorf("%w: missing rider or barn", ErrInvalidCredential)
	}
	return Identity{RiderID: c.Subject, BarnID: c.Barn}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingCredential
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidCredential)
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingCredential
	}
	return strings.TrimSpace(token), nil
}
