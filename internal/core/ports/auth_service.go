package ports

import (
	"context"
	"time"

	"github.com/postly/postly-api/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal *domain.Principal
}

// RegisterInput carries a registration request. Actor is the caller's own
// principal when the request was authenticated, nil otherwise. Role is
// optional and only honoured for administrators.
type RegisterInput struct {
	Actor    *domain.Principal
	Username string
	Password string
	Role     *domain.Role
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Principal, error)
	Login(ctx context.Context, cred domain.Credential) (*LoginResult, error)
}

// IdentityResolver maps a validated token subject to the live principal.
// A nil principal with a nil error means the request is anonymous.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (*domain.Principal, error)
}

// AccountService covers every account mutation. Each method receives the
// acting principal (nil when anonymous) and applies the authorization policy
// itself.
type AccountService interface {
	Me(ctx context.Context, actor *domain.Principal) (*domain.Principal, error)
	Get(ctx context.Context, id int64) (*domain.Principal, error)
	Delete(ctx context.Context, actor *domain.Principal, targetID int64) error
	ChangeUsername(ctx context.Context, actor *domain.Principal, targetID int64, username string) (*domain.Principal, error)
	ChangePassword(ctx context.Context, actor *domain.Principal, targetID int64, oldPassword, newPassword string) error
	ChangeRole(ctx context.Context, actor *domain.Principal, targetID int64, role domain.Role) (*domain.Principal, error)
	Follow(ctx context.Context, actor *domain.Principal, sourceID, targetID int64) error
	Unfollow(ctx context.Context, actor *domain.Principal, sourceID, targetID int64) error
}

// ModerationService removes user content on behalf of its author or staff.
type ModerationService interface {
	DeletePost(ctx context.Context, actor *domain.Principal, postID int64) error
	DeleteComment(ctx context.Context, actor *domain.Principal, commentID int64) error
}
