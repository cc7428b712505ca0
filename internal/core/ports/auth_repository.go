package ports

import (
	"context"

	"github.com/postly/postly-api/internal/core/domain"
)

// PrincipalRepository defines persistence for registered accounts.
//
// Implementations return domain.ErrPrincipalNotFound when no account matches
// and domain.ErrUsernameConflict when a write would violate username
// uniqueness. The uniqueness guarantee must come from the store itself; a
// service-level existence check is only an early exit.
type PrincipalRepository interface {
	Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error)
	FindByID(ctx context.Context, id int64) (*domain.Principal, error)
	FindByUsername(ctx context.Context, username string) (*domain.Principal, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdatePasswordSecret(ctx context.Context, id int64, secret []byte) error
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	Delete(ctx context.Context, id int64) error
}

// FollowRepository stores directed follow edges between accounts.
type FollowRepository interface {
	// Follow is idempotent: following an already-followed account succeeds.
	Follow(ctx context.Context, followerID, followeeID int64) error
	Unfollow(ctx context.Context, followerID, followeeID int64) error
	// DeleteAllFor removes every edge touching id, in either direction.
	DeleteAllFor(ctx context.Context, id int64) error
}

// ContentRepository exposes the ownership of posts and comments and their
// removal. Lookups return domain.ErrContentNotFound for unknown ids.
type ContentRepository interface {
	FindPost(ctx context.Context, id int64) (*domain.ContentRef, error)
	DeletePost(ctx context.Context, id int64) error
	FindComment(ctx context.Context, id int64) (*domain.ContentRef, error)
	DeleteComment(ctx context.Context, id int64) error
}
