package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/postly/postly-api/internal/core/ports"
)

// ModerationHandler removes posts and comments on behalf of their author or
// staff.
type ModerationHandler struct {
	service ports.ModerationService
}

func NewModerationHandler(service ports.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// DeletePost removes a post and its comments.
//
// @Summary      Delete a post
// @Tags         moderation
// @Security     BearerAuth
// @Param        postId  path  int  true  "Post id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/posts/{postId} [delete]
func (h *ModerationHandler) DeletePost(c echo.Context) error {
	id, err := pathID(c, "postId")
	if err != nil {
		return err
	}
	if err := h.service.DeletePost(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteComment removes a single comment.
//
// @Summary      Delete a comment
// @Tags         moderation
// @Security     BearerAuth
// @Param        commentId  path  int  true  "Comment id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/comments/{commentId} [delete]
func (h *ModerationHandler) DeleteComment(c echo.Context) error {
	id, err := pathID(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.service.DeleteComment(c.Request().Context(), actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
