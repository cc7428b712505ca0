package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/metrics"
)

// Require enforces an operation class that does not depend on a resource
// owner. Ownership-scoped checks need the target and live in the services,
// so SelfOrAdmin is rejected at construction.
//
// Anonymous callers get 401; authenticated callers lacking the role get 403.
func Require(class policy.Class) echo.MiddlewareFunc {
	if class == policy.SelfOrAdmin {
		panic(fmt.Sprintf("middleware: Require(%s) needs a resource owner", class))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := policy.Decide(PrincipalFrom(c), class, 0)
			metrics.AuthzDecisionsTotal.WithLabelValues(class.String(), string(d.Reason)).Inc()

			switch err := d.Err(); {
			case err == nil:
				return next(c)
			case errors.Is(err, domain.ErrUnauthenticated):
				if c.Response().Header().Get(echo.HeaderWWWAuthenticate) == "" {
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			default:
				return echo.NewHTTPError(http.StatusForbidden, "permission denied")
			}
		}
	}
}
