package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/middleware"
	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/service"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// CommentHandler exposes the comment endpoints.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Create godoc
// @Summary Comment on a blog post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog id"
// @Param payload body service.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope{data=models.Comment}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/blog/{blogId} [post]
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), c.Param("blogId"), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// ListByBlog godoc
// @Summary List comments on a blog post
// @Tags comments
// @Produce json
// @Param blogId path string true "Blog id"
// @Success 200 {object} response.Envelope{data=[]models.Comment}
// @Failure 404 {object} response.Envelope
// @Router /comments/blog/{blogId} [get]
func (h *CommentHandler) ListByBlog(c *gin.Context) {
	comments, err := h.comments.ListByBlog(c.Request.Context(), c.Param("blogId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments, nil)
}

// Delete godoc
// @Summary Delete a comment (author or admin)
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path string true "Comment id"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /comments/{commentId} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	role, _ := middleware.Role(c)
	isAdmin := role == models.RoleAdmin

	if err := h.comments.Delete(c.Request.Context(), c.Param("commentId"), userID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
