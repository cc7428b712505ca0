package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
)

type identityResolver struct {
	repo ports.PrincipalRepository
	log  zerolog.Logger
}

// NewIdentityResolver returns an IdentityResolver backed by repo.
func NewIdentityResolver(repo ports.PrincipalRepository, log zerolog.Logger) ports.IdentityResolver {
	return &identityResolver{repo: repo, log: log}
}

// Resolve looks the subject up on every call, so role changes and deletions
// take effect on the next request carrying an old token.
func (r *identityResolver) Resolve(ctx context.Context, subject string) (*domain.Principal, error) {
	if subject == "" {
		return nil, nil
	}

	p, err := r.repo.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			r.log.Debug().Str("subject", subject).Msg("token subject no longer exists")
			return nil, nil
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return p, nil
}
