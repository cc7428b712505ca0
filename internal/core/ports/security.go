package ports

import (
	"context"
	"time"

	"github.com/postly/postly-api/internal/core/domain"
)

// PasswordHasher derives and checks password secrets. The derivation is slow
// by design, so both calls take a context and may queue behind other work.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) ([]byte, error)
	Verify(ctx context.Context, plaintext string, secret []byte) (bool, error)
}

// TokenIssuer mints bearer tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p *domain.Principal) (token string, expiresAt time.Time, err error)
}

// LoginThrottle tracks failed login attempts per username.
type LoginThrottle interface {
	Allowed(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
