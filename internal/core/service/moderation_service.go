package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/policy"
	"github.com/postly/postly-api/internal/core/ports"
)

type moderationService struct {
	content ports.ContentRepository
	guard   guard
	log     zerolog.Logger
}

// NewModerationService returns a ModerationService implementation.
func NewModerationService(content ports.ContentRepository, log zerolog.Logger) ports.ModerationService {
	return &moderationService{content: content, guard: guard{log: log}, log: log}
}

func (s *moderationService) DeletePost(ctx context.Context, actor *domain.Principal, postID int64) error {
	return s.remove(ctx, actor, postID, s.content.FindPost, s.content.DeletePost)
}

func (s *moderationService) DeleteComment(ctx context.Context, actor *domain.Principal, commentID int64) error {
	return s.remove(ctx, actor, commentID, s.content.FindComment, s.content.DeleteComment)
}

func (s *moderationService) remove(
	ctx context.Context,
	actor *domain.Principal,
	id int64,
	find func(context.Context, int64) (*domain.ContentRef, error),
	del func(context.Context, int64) error,
) error {
	if err := s.guard.authenticated(actor, policy.SelfOrAdmin); err != nil {
		return err
	}

	ref, err := find(ctx, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if err := s.guard.authorize(actor, policy.SelfOrAdmin, ref.AuthorID); err != nil {
		return fmt.Errorf("delete %s: %w", ref.Kind, err)
	}
	if err := del(ctx, ref.ID); err != nil {
		return fmt.Errorf("delete %s: %w", ref.Kind, err)
	}

	s.log.Info().Str("kind", string(ref.Kind)).Int64("content_id", ref.ID).Int64("author_id", ref.AuthorID).
		Int64("actor_id", actor.ID).Msg("content deleted")
	return nil
}
