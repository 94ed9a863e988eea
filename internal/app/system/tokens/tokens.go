// Package tokens issues and verifies the signed session tokens that carry a
// user's identity and organization context.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Client-facing error codes.
const (
	CodeMissing   = "TOKEN_MISSING"
	CodeExpired   = "TOKEN_EXPIRED"
	CodeMalformed = "TOKEN_MALFORMED"
	CodeInvalid   = "TOKEN_INVALID"
)

var (
	// ErrNoSecret is returned by NewCodec when no signing secret is configured.
	ErrNoSecret = errors.New("token signing secret is not configured")

	ErrExpired          = errors.New("token has expired")
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrInvalid          = errors.New("token is invalid")
)

// Code maps a verification error to its client-facing code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExpired):
		return CodeExpired
	case errors.Is(err, ErrMalformed):
		return CodeMalformed
	default:
		return CodeInvalid
	}
}

// Token kinds.
const (
	KindUser = "user"
	KindLab  = "lab"
)

// Claims is the payload of a session token.
//
// LegacyID and UserID both hold the subject user id: "id" for older
// clients, "userId" for the current format.
type Claims struct {
	LegacyID               string `json:"id"`
	UserID                 string `json:"userId"`
	Role                   string `json:"role"`
	OrganizationID         string `json:"organizationId,omitempty"`
	OrganizationIdentifier string `json:"organizationIdentifier,omitempty"`
	LabID                  string `json:"labId,omitempty"`
	LabIdentifier          string `json:"labIdentifier,omitempty"`
	Kind                   string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the user id, preferring the current field.
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.LegacyID
}

// Codec signs and verifies HS256 tokens with a process-wide secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock injects the time source used for issue and verify.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec returns a Codec for the given secret. An empty secret is a
// configuration error.
func NewCodec(secret, issuer string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	c := &Codec{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Issue signs claims with an expiry ttl from now. Registered claims in the
// input are replaced.
func (c *Codec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	subject := claims.SubjectID()
	if subject == "" {
		return "", errors.New("token subject is empty")
	}

	now := c.now()
	claims.LegacyID = subject
	claims.UserID = subject
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Failures are classified as
// ErrExpired, ErrMalformed, ErrInvalidSignature or ErrInvalid.
func (c *Codec) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if !token.Valid || claims.SubjectID() == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
