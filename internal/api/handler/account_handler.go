package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postly/postly-api/internal/core/domain"
	"github.com/postly/postly-api/internal/core/ports"
)

// AccountHandler serves /api/account. Errors are returned to the central
// error handler, which owns the status mapping.
type AccountHandler struct {
	auth     ports.AuthService
	accounts ports.AccountService
}

func NewAccountHandler(auth ports.AuthService, accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{auth: auth, accounts: accounts}
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Description  A requested role is only applied when the caller is an authenticated administrator.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  domain.Principal
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/account/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.RegisterInput{Actor: actor(c), Username: req.Username, Password: req.Password}
	if req.Role != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			return err
		}
		in.Role = &role
	}

	p, err := h.auth.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Login authenticates a user and returns a bearer token valid for 24 hours.
//
// @Summary      Login
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/account/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), domain.Credential{Username: req.Username, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.Principal})
}

// Status reports whether the presented token still names a live account.
//
// @Summary      Token status
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/account/status [get]
func (h *AccountHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Authenticated: actor(c) != nil})
}

// Me returns the caller's own account.
//
// @Summary      Current account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Principal
// @Failure      401  {object}  map[string]string
// @Router       /api/account/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	p, err := h.accounts.Me(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Get returns a public view of any account.
//
// @Summary      Get an account
// @Tags         account
// @Produce      json
// @Param        userId  path      int  true  "Account id"
// @Success      200     {object}  domain.Principal
// @Failure      404     {object}  map[string]string
// @Router       /api/account/{userId} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	p, err := h.accounts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete removes an account.
//
// @Summary      Delete an account
// @Tags         account
// @Security     BearerAuth
// @Param        userId  path  int  true  "Account id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/account/{userId} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.accounts.Delete(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeUsername renames an account.
//
// @Summary      Change username
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      int                    true  "Account id"
// @Param        body    body      changeUsernameRequest  true  "New username"
// @Success      200     {object}  domain.Principal
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /api/account/{userId}/username [put]
func (h *AccountHandler) ChangeUsername(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req changeUsernameRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.accounts.ChangeUsername(c.Request().Context(), actor(c), id, req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ChangePassword replaces an account's password after checking the current one.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Security     BearerAuth
// @Param        userId  path  int                    true  "Account id"
// @Param        body    body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/account/{userId}/password [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), actor(c), id, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole sets an account's role. Administrators only.
//
// @Summary      Change role
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      int                true  "Account id"
// @Param        body    body      changeRoleRequest  true  "Role name: User, Moderator or Admin"
// @Success      200     {object}  domain.Principal
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /api/account/{userId}/role [put]
func (h *AccountHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	p, err := h.accounts.ChangeRole(c.Request().Context(), actor(c), id, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Follow makes userId follow targetId.
//
// @Summary      Follow an account
// @Tags         account
// @Security     BearerAuth
// @Param        userId    path  int  true  "Follower id"
// @Param        targetId  path  int  true  "Followed id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/account/{userId}/following/{targetId} [post]
func (h *AccountHandler) Follow(c echo.Context) error {
	return h.followEdge(c, h.accounts.Follow)
}

// Unfollow removes the userId → targetId follow edge.
//
// @Summary      Unfollow an account
// @Tags         account
// @Security     BearerAuth
// @Param        userId    path  int  true  "Follower id"
// @Param        targetId  path  int  true  "Followed id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/account/{userId}/following/{targetId} [delete]
func (h *AccountHandler) Unfollow(c echo.Context) error {
	return h.followEdge(c, h.accounts.Unfollow)
}

func (h *AccountHandler) followEdge(c echo.Context, op func(context.Context, *domain.Principal, int64, int64) error) error {
	source, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	target, err := pathID(c, "targetId")
	if err != nil {
		return err
	}
	if err := op(c.Request().Context(), actor(c), source, target); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
