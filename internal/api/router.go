package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/postly/postly-api/internal/api/handler"
	"github.com/postly/postly-api/internal/api/middleware"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/core/ports"
)

// RateLimit is the per-client-IP budget for the credential endpoints.
// A zero PerSecond disables the limiter.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Deps is everything the router wires into handlers and middleware.
type Deps struct {
	Auth       ports.AuthService
	Accounts   ports.AccountService
	Moderation ports.ModerationService
	Resolver   ports.IdentityResolver
	Tokens     middleware.TokenValidator
	Health     map[string]handler.Pinger
	RateLimit  RateLimit
	Log        zerolog.Logger

	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "postly",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API ---
	// Every /api route resolves an optional bearer token; the class of each
	// route decides what an anonymous caller gets. Targeted account and
	// content routes are authorized in the services after the target lookup.
	apiGroup := e.Group("/api", middleware.Auth(d.Tokens, d.Resolver, d.Log))
	authenticated := middleware.Require(policy.AuthenticatedAny)
	credentials := credentialLimiter(d.RateLimit)

	accounts := handler.NewAccountHandler(d.Auth, d.Accounts)
	acc := apiGroup.Group("/account")
	acc.POST("/register", accounts.Register, credentials...)
	acc.POST("/login", accounts.Login, credentials...)
	acc.GET("/status", accounts.Status, authenticated)
	acc.GET("/me", accounts.Me, authenticated)
	acc.GET("/:userId", accounts.Get)
	acc.DELETE("/:userId", accounts.Delete)
	acc.PUT("/:userId/username", accounts.ChangeUsername)
	acc.PUT("/:userId/password", accounts.ChangePassword)
	acc.PUT("/:userId/role", accounts.ChangeRole)
	acc.POST("/:userId/following/:targetId", accounts.Follow)
	acc.DELETE("/:userId/following/:targetId", accounts.Unfollow)

	moderation := handler.NewModerationHandler(d.Moderation)
	apiGroup.DELETE("/posts/:postId", moderation.DeletePost)
	apiGroup.DELETE("/comments/:commentId", moderation.DeleteComment)

	return e
}

func credentialLimiter(cfg RateLimit) []echo.MiddlewareFunc {
	if cfg.PerSecond <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.PerSecond),
		Burst:     cfg.Burst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
