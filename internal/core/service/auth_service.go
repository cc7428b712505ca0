package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/core/ports"
	"github.com/postly/postly-api/internal/metrics"
)

type authService struct {
	repo     ports.PrincipalRepository
	hasher   ports.PasswordHasher
	issuer   ports.TokenIssuer
	throttle ports.LoginThrottle
	log      zerolog.Logger
}

// NewAuthService returns an AuthService implementation. throttle may be nil,
// in which case failed logins are not limited.
func NewAuthService(
	repo ports.PrincipalRepository,
	hasher ports.PasswordHasher,
	issuer ports.TokenIssuer,
	throttle ports.LoginThrottle,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		repo:     repo,
		hasher:   hasher,
		issuer:   issuer,
		throttle: throttle,
		log:      log,
	}
}

// Register creates a principal. The requested role only takes effect when the
// caller is an administrator.
func (s *authService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Principal, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("register: %w: username and password are required", domain.ErrInvalidInput)
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, domain.ErrUsernameConflict
	}

	role := policy.RegistrationRole(in.Actor, in.Role)
	if in.Role != nil && *in.Role != role {
		s.log.Info().Str("username", username).Stringer("requested", *in.Role).Stringer("granted", role).
			Msg("requested role ignored")
	}

	secret, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Principal{
		Username:       username,
		Role:           role,
		PasswordSecret: secret,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		// Store-level uniqueness catches registrations racing past the
		// existence check.
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(created.Role.String()).Inc()
	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Stringer("role", created.Role).
		Msg("account registered")
	return created, nil
}

// Login verifies a credential and issues a token. Unknown usernames and wrong
// passwords produce the same error.
func (s *authService) Login(ctx context.Context, cred domain.Credential) (*ports.LoginResult, error) {
	if cred.Username == "" || cred.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrCredentialInvalid
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allowed(ctx, cred.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", cred.Username).Msg("login throttle check failed, continuing")
		} else if !allowed {
			metrics.LoginAttemptsTotal.WithLabelValues("throttled").Inc()
			return nil, domain.ErrTooManyAttempts
		}
	}

	p, err := s.repo.FindByUsername(ctx, cred.Username)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, s.failLogin(ctx, cred.Username)
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, cred.Password, p.PasswordSecret)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: verify password: %w", err)
	}
	if !ok {
		return nil, s.failLogin(ctx, cred.Username)
	}

	token, exp, err := s.issuer.Issue(p)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, cred.Username); err != nil {
			s.log.Warn().Err(err).Str("username", cred.Username).Msg("failed to reset login throttle")
		}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Debug().Int64("user_id", p.ID).Time("expires_at", exp).Msg("token issued")
	return &ports.LoginResult{Token: token, ExpiresAt: exp, Principal: p}, nil
}

func (s *authService) failLogin(ctx context.Context, username string) error {
	metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
		}
	}
	return domain.ErrCredentialInvalid
}
