package handler

import (
	"time"

	"github.com/postly/postly-api/internal/core/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	// Role is honoured only when the caller is an administrator.
	Role string `json:"role,omitempty" validate:"omitempty,max=16"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      *domain.Principal `json:"user"`
}

type changeUsernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type statusResponse struct {
	Authenticated bool `json:"authenticated"`
}
