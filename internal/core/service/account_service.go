package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/core/ports"
)

type accountService struct {
	repo    ports.PrincipalRepository
	follows ports.FollowRepository
	hasher  ports.PasswordHasher
	guard   guard
	log     zerolog.Logger
}

// NewAccountService returns an AccountService implementation.
func NewAccountService(
	repo ports.PrincipalRepository,
	follows ports.FollowRepository,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) ports.AccountService {
	return &accountService{
		repo:    repo,
		follows: follows,
		hasher:  hasher,
		guard:   guard{log: log},
		log:     log,
	}
}

// target authenticates the caller, loads the account being acted on and then
// applies class with that account as the owner. Failures surface in that
// order: unauthenticated, not found, denied.
func (s *accountService) target(ctx context.Context, actor *domain.Principal, class policy.Class, id int64) (*domain.Principal, error) {
	if err := s.guard.authenticated(actor, class); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.authorize(actor, class, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *accountService) Me(_ context.Context, actor *domain.Principal) (*domain.Principal, error) {
	if err := s.guard.authorize(actor, policy.AuthenticatedAny, 0); err != nil {
		return nil, err
	}
	return actor, nil
}

func (s *accountService) Get(ctx context.Context, id int64) (*domain.Principal, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return p, nil
}

// Delete removes the account and every follow edge touching it.
func (s *accountService) Delete(ctx context.Context, actor *domain.Principal, targetID int64) error {
	p, err := s.target(ctx, actor, policy.SelfOrAdmin, targetID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	// The account is gone at this point; stale edges only point at a missing id.
	if err := s.follows.DeleteAllFor(ctx, p.ID); err != nil {
		s.log.Error().Err(err).Int64("user_id", p.ID).Msg("follow edges left behind after account delete")
	}

	s.log.Info().Int64("user_id", p.ID).Int64("actor_id", actor.ID).Msg("account deleted")
	return nil
}

func (s *accountService) ChangeUsername(ctx context.Context, actor *domain.Principal, targetID int64, username string) (*domain.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("change username: %w: username is required", domain.ErrInvalidInput)
	}

	p, err := s.target(ctx, actor, policy.SelfOrAdmin, targetID)
	if err != nil {
		return nil, fmt.Errorf("change username: %w", err)
	}
	if p.Username == username {
		return p, nil
	}

	taken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("change username: %w", err)
	}
	if taken {
		return nil, domain.ErrUsernameConflict
	}

	if err := s.repo.UpdateUsername(ctx, p.ID, username); err != nil {
		return nil, fmt.Errorf("change username: %w", err)
	}

	s.log.Info().Int64("user_id", p.ID).Str("from", p.Username).Str("to", username).Msg("username changed")
	return s.reload(ctx, p.ID, "change username")
}

// ChangePassword requires the account's current password, even when an
// elevated actor is changing someone else's.
func (s *accountService) ChangePassword(ctx context.Context, actor *domain.Principal, targetID int64, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("change password: %w: new password is required", domain.ErrInvalidInput)
	}

	p, err := s.target(ctx, actor, policy.SelfOrAdmin, targetID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, oldPassword, p.PasswordSecret)
	if err != nil {
		return fmt.Errorf("change password: verify: %w", err)
	}
	if !ok {
		return domain.ErrCredentialInvalid
	}

	secret, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	if err := s.repo.UpdatePasswordSecret(ctx, p.ID, secret); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Int64("user_id", p.ID).Int64("actor_id", actor.ID).Msg("password changed")
	return nil
}

// ChangeRole is restricted to administrators. An administrator targeting
// their own account gets the account back unchanged.
func (s *accountService) ChangeRole(ctx context.Context, actor *domain.Principal, targetID int64, role domain.Role) (*domain.Principal, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("change role: %w: %d", domain.ErrInvalidRole, int(role))
	}

	p, err := s.target(ctx, actor, policy.AdminOnly, targetID)
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}
	if !policy.RoleChangeApplies(actor, p.ID) {
		s.log.Debug().Int64("user_id", p.ID).Msg("self role change ignored")
		return p, nil
	}
	if p.Role == role {
		return p, nil
	}

	if err := s.repo.UpdateRole(ctx, p.ID, role); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	s.log.Info().Int64("user_id", p.ID).Stringer("from", p.Role).Stringer("to", role).Int64("actor_id", actor.ID).
		Msg("role changed")
	return s.reload(ctx, p.ID, "change role")
}

// Follow makes sourceID follow targetID. Following oneself is accepted and
// ignored.
func (s *accountService) Follow(ctx context.Context, actor *domain.Principal, sourceID, targetID int64) error {
	source, target, err := s.followPair(ctx, actor, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	if source.ID == target.ID {
		return nil
	}
	if err := s.follows.Follow(ctx, source.ID, target.ID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

func (s *accountService) Unfollow(ctx context.Context, actor *domain.Principal, sourceID, targetID int64) error {
	source, target, err := s.followPair(ctx, actor, sourceID, targetID)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if source.ID == target.ID {
		return nil
	}
	if err := s.follows.Unfollow(ctx, source.ID, target.ID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

func (s *accountService) followPair(ctx context.Context, actor *domain.Principal, sourceID, targetID int64) (*domain.Principal, *domain.Principal, error) {
	if err := s.guard.authenticated(actor, policy.SelfOrAdmin); err != nil {
		return nil, nil, err
	}
	source, err := s.repo.FindByID(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.authorize(actor, policy.SelfOrAdmin, source.ID); err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

func (s *accountService) reload(ctx context.Context, id int64, op string) (*domain.Principal, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: reload: %w", op, err)
	}
	return p, nil
}
