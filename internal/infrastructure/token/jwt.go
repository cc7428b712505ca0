package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/postly/postly-api/internal/core/domain"
)

// Lifetime is fixed; there is no refresh and no server-side revocation.
const Lifetime = 24 * time.Hour

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidConfig = errors.New("invalid token configuration")
)

// Config is the server-held signing configuration shared by the issuer and
// the validator.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
}

func (c Config) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("%w: empty signing secret", ErrInvalidConfig)
	}
	if c.Issuer == "" || c.Audience == "" {
		return fmt.Errorf("%w: issuer and audience are required", ErrInvalidConfig)
	}
	return nil
}

// Claims is the token payload. Subject carries the username.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 tokens for authenticated principals.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source; used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue returns a signed token for p that expires exactly Lifetime after
// issuance, together with that expiry.
func (i *Issuer) Issue(p *domain.Principal) (string, time.Time, error) {
	if p == nil {
		return "", time.Time{}, errors.New("issue token: nil principal")
	}
	iat := i.now().UTC().Truncate(time.Second)
	exp := iat.Add(Lifetime)

	claims := Claims{
		Role: p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Username,
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(iat),
			NotBefore: jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Validator checks signature, algorithm, issuer, audience and expiry of a
// presented token. It is the transport-side counterpart of Issuer.
type Validator struct {
	cfg Config
	now func() time.Time
}

func NewValidator(cfg Config) (*Validator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Validator{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source; used by tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate parses raw and returns its claims. Every failure wraps
// ErrInvalidToken; expiry additionally wraps jwt.ErrTokenExpired.
func (v *Validator) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(v.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
