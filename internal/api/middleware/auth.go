package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
	"github.com/postly/postly-api/internal/infrastructure/token"
)

const (
	principalKey          = "principal"
	invalidTokenChallenge = `Bearer error="invalid_token"`
)

// TokenValidator checks a raw bearer token and returns its claims.
type TokenValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// Auth validates an optional bearer token and stores the live principal it
// names in the context.
//
// A missing header, an unusable token (malformed header, bad signature, wrong
// issuer or audience, expired) and a valid token whose subject no longer
// exists all leave the request anonymous. Unusable tokens additionally get
// a `Bearer error="invalid_token"` challenge, so a protected route answers
// 401 with that hint while public routes such as login still work.
//
// Routes decide what anonymous callers may do; see Require.
func Auth(validator TokenValidator, resolver ports.IdentityResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				log.Debug().Str("path", c.Path()).Msg("malformed authorization header ignored")
				return anonymous(c, next)
			}

			claims, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("bearer token rejected")
				return anonymous(c, next)
			}

			p, err := resolver.Resolve(c.Request().Context(), claims.Subject)
			if err != nil {
				return err
			}
			if p != nil {
				SetPrincipal(c, p)
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Auth, or nil for anonymous
// requests.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

func anonymous(c echo.Context, next echo.HandlerFunc) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, invalidTokenChallenge)
	return next(c)
}
