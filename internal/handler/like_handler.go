package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/middleware"
	"github.com/codewithsadee/blog-api/internal/service"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// LikeHandler exposes the like and unlike endpoints.
type LikeHandler struct {
	likes *service.LikeService
}

// NewLikeHandler constructs a LikeHandler.
func NewLikeHandler(likes *service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// likeCountResponse reports the post's like total after a change.
type likeCountResponse struct {
	LikesCount int `json:"likes_count"`
}

// Like godoc
// @Summary Like a blog post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /likes/blog/{blogId} [post]
func (h *LikeHandler) Like(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	count, err := h.likes.Like(c.Request.Context(), c.Param("blogId"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, likeCountResponse{LikesCount: count}, nil)
}

// Unlike godoc
// @Summary Remove a like from a blog post
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /likes/blog/{blogId} [delete]
func (h *LikeHandler) Unlike(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	count, err := h.likes.Unlike(c.Request.Context(), c.Param("blogId"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, likeCountResponse{LikesCount: count}, nil)
}
