// Package auth issues and verifies admin session tokens and hashes stored
// passwords.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/labcms/internal/common"
	"github.com/dmitrijs2005/labcms/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer   = "labcms"
	DefaultAudience = "labcms-admin"
	DefaultTTL      = 24 * time.Hour
)

// Claims is the payload of a session token: the principal's public fields
// plus the standard registered claims (iss, aud, sub, iat, exp, jti).
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// Identity returns the principal fields carried by the token.
func (c *Claims) Identity() *models.Identity {
	return &models.Identity{ID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}

// Codec signs and verifies session tokens with a symmetric secret. It holds
// no mutable state and is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithIssuer pins the iss claim.
func WithIssuer(iss string) CodecOption { return func(c *Codec) { c.issuer = iss } }

// WithAudience pins the aud claim.
func WithAudience(aud string) CodecOption { return func(c *Codec) { c.audience = aud } }

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) CodecOption { return func(c *Codec) { c.ttl = ttl } }

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) CodecOption { return func(c *Codec) { c.now = now } }

// NewCodec builds a Codec. A blank secret yields common.ErrMissingSecret,
// which callers treat as a startup failure.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, common.ErrMissingSecret
	}
	c := &Codec{
		secret:   []byte(secret),
		issuer:   DefaultIssuer,
		audience: DefaultAudience,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", c.ttl)
	}
	return c, nil
}

// TTL reports the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for the given identity. The returned time is the
// token's exp claim.
func (c *Codec) Issue(id models.Identity) (string, time.Time, error) {
	if strings.TrimSpace(id.ID) == "" {
		return "", time.Time{}, errors.New("principal id is required")
	}

	now := c.now()
	exp := jwt.NewNumericDate(now.Add(c.ttl))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
		UserID:  id.ID,
		Email:   id.Email,
		IsAdmin: id.IsAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp.Time, nil
}

// Decode verifies signature, algorithm, issuer, audience and expiry in one
// pass. Expired tokens yield common.ErrTokenExpired; every other failure
// yields common.ErrInvalidToken.
func (c *Codec) Decode(token string) (*Claims, error) {
	return c.parse(token)
}

// Verify is the non-failing form used by the access gate. It applies the
// same rules as Decode and additionally requires the administrator claim.
func (c *Codec) Verify(token string) (claims *Claims, ok bool) {
	defer func() {
		if recover() != nil {
			claims, ok = nil, false
		}
	}()

	claims, err := c.parse(token)
	if err != nil || !claims.IsAdmin {
		return nil, false
	}
	return claims, true
}

func (c *Codec) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		// A bad signature is reported before the time checks run, so an
		// expired-but-forged token is still classified as invalid.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !parsed.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
