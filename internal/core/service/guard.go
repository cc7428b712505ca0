package service

import (
	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/metrics"
)

// guard records and logs every policy decision taken by the services.
type guard struct {
	log zerolog.Logger
}

func (g guard) authorize(actor *domain.Principal, class policy.Class, ownerID int64) error {
	d := policy.Decide(actor, class, ownerID)
	metrics.AuthzDecisionsTotal.WithLabelValues(class.String(), string(d.Reason)).Inc()

	if !d.Allow {
		ev := g.log.Info().Str("class", class.String()).Str("reason", string(d.Reason)).Int64("owner_id", ownerID)
		if actor != nil {
			ev = ev.Int64("actor_id", actor.ID).Stringer("actor_role", actor.Role)
		}
		ev.Msg("access denied")
	}
	return d.Err()
}

// authenticated fails fast for anonymous callers so that a missing principal
// is reported before any target lookup.
func (g guard) authenticated(actor *domain.Principal, class policy.Class) error {
	if actor != nil {
		return nil
	}
	return g.authorize(nil, class, 0)
}
