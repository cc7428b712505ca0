// Package app wires configuration, storage, security primitives, services and
// the HTTP router into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/postly/postly-api/internal/api"
	"github.com/postly/postly-api/internal/api/handler"
	"github.com/postly/postly-api/internal/core/ports"
	"github.com/postly/postly-api/internal/core/service"
	"github.com/postly/postly-api/internal/infrastructure/config"
	"github.com/postly/postly-api/internal/infrastructure/db/mongo"
	"github.com/postly/postly-api/internal/infrastructure/db/redis"
	"github.com/postly/postly-api/internal/infrastructure/password"
	"github.com/postly/postly-api/internal/infrastructure/queue"
	"github.com/postly/postly-api/internal/infrastructure/token"
)

const shutdownTimeout = 15 * time.Second

// App owns the server and every connection it opened.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	mongo  *mongodriver.Client
	redis  *goredis.Client
	server *echo.Echo
}

// Storage is the Mongo side of the wiring, shared with the admin CLI.
type Storage struct {
	Client     *mongodriver.Client
	Principals ports.PrincipalRepository
	Follows    ports.FollowRepository
	Content    ports.ContentRepository
	Ping       handler.Pinger
}

// OpenStorage connects to Mongo, ensures indexes and builds the repositories.
func OpenStorage(ctx context.Context, cfg config.MongoConfig) (*Storage, error) {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.URI, Database: cfg.Database, Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &Storage{
		Client:     client,
		Principals: mongo.NewPrincipalRepository(db),
		Follows:    mongo.NewFollowRepository(db),
		Content:    mongo.NewContentRepository(db),
		Ping:       func(ctx context.Context) error { return mongo.Ping(ctx, db) },
	}, nil
}

// NewHasher builds the production Argon2id hasher behind a started worker
// pool. The pool stops when ctx is cancelled.
func NewHasher(ctx context.Context, workers int, log zerolog.Logger) (ports.PasswordHasher, error) {
	argon, err := password.New(password.DefaultParams)
	if err != nil {
		return nil, err
	}
	pool := queue.NewPool(workers, log)
	pool.Start(ctx)
	return queue.NewPooledHasher(pool, argon), nil
}

// New connects to every dependency and builds the router. Run must be called
// with the same ctx to serve.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := OpenStorage(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = store.Client.Disconnect(context.Background())
		return nil, fmt.Errorf("redis: %w", err)
	}

	a := &App{cfg: cfg, log: log, mongo: store.Client, redis: rdb}
	if err := a.build(ctx, store); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, store *Storage) error {
	tokenCfg := token.Config{Secret: a.cfg.JWT.Secret, Issuer: a.cfg.JWT.Issuer, Audience: a.cfg.JWT.Audience}
	issuer, err := token.NewIssuer(tokenCfg)
	if err != nil {
		return err
	}
	validator, err := token.NewValidator(tokenCfg)
	if err != nil {
		return err
	}

	hasher, err := NewHasher(ctx, a.cfg.Hasher.Workers, a.log.With().Str("component", "hash_pool").Logger())
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	throttle := redis.NewLoginThrottle(a.redis, a.cfg.Throttle.MaxFailures, a.cfg.Throttle.Window)
	svcLog := a.log.With().Str("component", "service").Logger()

	a.server = api.NewRouter(api.Deps{
		Auth:       service.NewAuthService(store.Principals, hasher, issuer, throttle, svcLog),
		Accounts:   service.NewAccountService(store.Principals, store.Follows, hasher, svcLog),
		Moderation: service.NewModerationService(store.Content, svcLog),
		Resolver:   service.NewIdentityResolver(store.Principals, svcLog),
		Tokens:     validator,
		Health: map[string]handler.Pinger{
			"mongodb": store.Ping,
			"redis":   func(ctx context.Context) error { return a.redis.Ping(ctx).Err() },
		},
		RateLimit: api.RateLimit{PerSecond: a.cfg.RateLimit.PerSecond, Burst: a.cfg.RateLimit.Burst},
		Log:       a.log.With().Str("component", "http").Logger(),
	})
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	addr := ":" + a.cfg.Port
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("http server listening")
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}
