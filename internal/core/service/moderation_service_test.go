package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/postly/postly-api/internal/core/domain"
)

func TestModerationService_DeletePost(t *testing.T) {
	author := &domain.Principal{ID: 1, Role: domain.RoleUser}
	stranger := &domain.Principal{ID: 2, Role: domain.RoleUser}
	mod := &domain.Principal{ID: 3, Role: domain.RoleModerator}
	admin := &domain.Principal{ID: 4, Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		actor   *domain.Principal
		postID  int64
		wantErr error
	}{
		{"author", author, 10, nil},
		{"moderator", mod, 10, nil},
		{"admin", admin, 10, nil},
		{"stranger", stranger, 10, domain.ErrPermissionDenied},
		{"anonymous", nil, 10, domain.ErrUnauthenticated},
		{"missing", author, 99, domain.ErrContentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := newStubContentRepo()
			content.posts[10] = author.ID
			svc := NewModerationService(content, zerolog.Nop())

			err := svc.DeletePost(context.Background(), tt.actor, tt.postID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if _, ok := content.posts[10]; !ok {
					t.Fatalf("post must survive a failed delete")
				}
				return
			}
			if err != nil {
				t.Fatalf("DeletePost returned error: %v", err)
			}
			if _, ok := content.posts[10]; ok {
				t.Fatalf("expected post removed")
			}
		})
	}
}

func TestModerationService_DeleteComment(t *testing.T) {
	content := newStubContentRepo()
	content.comments[5] = 1
	svc := NewModerationService(content, zerolog.Nop())

	stranger := &domain.Principal{ID: 2, Role: domain.RoleUser}
	if err := svc.DeleteComment(context.Background(), stranger, 5); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	author := &domain.Principal{ID: 1, Role: domain.RoleUser}
	if err := svc.DeleteComment(context.Background(), author, 5); err != nil {
		t.Fatalf("DeleteComment returned error: %v", err)
	}
	if _, ok := content.comments[5]; ok {
		t.Fatalf("expected comment removed")
	}
}
