package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codewithsadee/blog-api/internal/middleware"
	"github.com/codewithsadee/blog-api/internal/models"
	"github.com/codewithsadee/blog-api/internal/service"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/response"
)

// bannerField is the multipart form field carrying the banner image.
const bannerField = "banner_image"

// BlogHandler exposes the blog CRUD endpoints.
type BlogHandler struct {
	blogs          *service.BlogService
	users          *service.UserService
	maxBannerBytes int64
}

// NewBlogHandler constructs a BlogHandler.
func NewBlogHandler(blogs *service.BlogService, users *service.UserService, maxBannerBytes int64) *BlogHandler {
	return &BlogHandler{blogs: blogs, users: users, maxBannerBytes: maxBannerBytes}
}

// Create godoc
// @Summary Create a blog post (admin)
// @Tags blogs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "HTML content"
// @Param status formData string false "draft or published"
// @Param banner_image formData file false "Banner image"
// @Success 201 {object} response.Envelope{data=models.Blog}
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /blogs [post]
func (h *BlogHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateBlogRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	banner, err := h.bannerUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	blog, err := h.blogs.Create(c.Request.Context(), userID, req, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, blog)
}

// List godoc
// @Summary List blog posts
// @Tags blogs
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=service.BlogList}
// @Router /blogs [get]
func (h *BlogHandler) List(c *gin.Context) {
	filter := models.BlogFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	list, err := h.blogs.List(c.Request.Context(), filter, h.callerSeesDrafts(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Blogs, &list.Pagination)
}

// ListByAuthor godoc
// @Summary List blog posts by one author
// @Tags blogs
// @Produce json
// @Param userId path string true "Author id"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=service.BlogList}
// @Router /blogs/user/{userId} [get]
func (h *BlogHandler) ListByAuthor(c *gin.Context) {
	filter := models.BlogFilter{
		AuthorID: c.Param("userId"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	list, err := h.blogs.List(c.Request.Context(), filter, h.callerSeesDrafts(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list.Blogs, &list.Pagination)
}

// GetBySlug godoc
// @Summary Get a blog post by slug
// @Tags blogs
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} response.Envelope{data=models.Blog}
// @Failure 404 {object} response.Envelope
// @Router /blogs/{slug} [get]
func (h *BlogHandler) GetBySlug(c *gin.Context) {
	blog, err := h.blogs.GetBySlug(c.Request.Context(), c.Param("slug"), h.callerSeesDrafts(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}

// Update godoc
// @Summary Update a blog post (admin)
// @Tags blogs
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog id"
// @Success 200 {object} response.Envelope{data=models.Blog}
// @Failure 404 {object} response.Envelope
// @Router /blogs/{blogId} [put]
func (h *BlogHandler) Update(c *gin.Context) {
	var req models.UpdateBlogRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	banner, err := h.bannerUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	blog, err := h.blogs.Update(c.Request.Context(), c.Param("blogId"), req, banner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blog, nil)
}

// Delete godoc
// @Summary Delete a blog post (admin)
// @Tags blogs
// @Produce json
// @Security BearerAuth
// @Param blogId path string true "Blog id"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /blogs/{blogId} [delete]
func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.blogs.Delete(c.Request.Context(), c.Param("blogId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// bannerUpload pulls the optional banner file out of the multipart form,
// enforcing the size cap before any bytes hit storage.
func (h *BlogHandler) bannerUpload(c *gin.Context) (*service.BannerUpload, error) {
	header, err := c.FormFile(bannerField)
	if err != nil {
		if errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "banner image exceeds the size limit")
		}
		// missing file or a non-multipart body: banner is optional
		return nil, nil
	}

	if header.Size > h.maxBannerBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "banner image exceeds the size limit")
	}

	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read banner upload")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, h.maxBannerBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read banner upload")
	}
	if int64(len(data)) > h.maxBannerBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "banner image exceeds the size limit")
	}

	return &service.BannerUpload{Filename: header.Filename, Data: data}, nil
}

// callerSeesDrafts reports whether the optional-auth caller is an admin.
func (h *BlogHandler) callerSeesDrafts(c *gin.Context) bool {
	userID, ok := middleware.UserID(c)
	if !ok {
		return false
	}
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}
