package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithsadee/blog-api/internal/models"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
)

type fakeBlogRepo struct {
	byID   map[string]*models.Blog
	bySlug map[string]*models.Blog
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{byID: map[string]*models.Blog{}, bySlug: map[string]*models.Blog{}}
}

func (f *fakeBlogRepo) Create(_ context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	f.byID[blog.ID] = blog
	f.bySlug[blog.Slug] = blog
	return nil
}

func (f *fakeBlogRepo) FindByID(_ context.Context, id string) (*models.Blog, error) {
	blog, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return blog, nil
}

func (f *fakeBlogRepo) FindBySlug(_ context.Context, slug string) (*models.Blog, error) {
	blog, ok := f.bySlug[slug]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return blog, nil
}

func (f *fakeBlogRepo) List(_ context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	var out []models.Blog
	for _, blog := range f.byID {
		if filter.Status != nil && blog.Status != *filter.Status {
			continue
		}
		if filter.AuthorID != "" && blog.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *blog)
	}
	return out, len(out), nil
}

func (f *fakeBlogRepo) Update(_ context.Context, blog *models.Blog) error {
	f.byID[blog.ID] = blog
	f.bySlug[blog.Slug] = blog
	return nil
}

func (f *fakeBlogRepo) Delete(_ context.Context, id string) error {
	if blog, ok := f.byID[id]; ok {
		delete(f.bySlug, blog.Slug)
		delete(f.byID, id)
	}
	return nil
}

type fakeBannerStore struct {
	saved map[string][]byte
}

func (f *fakeBannerStore) SaveStream(filename string, r io.Reader) (string, error) {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.saved[filename] = data
	return filename, nil
}

func newBlogService(repo *fakeBlogRepo) *BlogService {
	return NewBlogService(repo, &fakeBannerStore{}, nil, nil, nil, nil, nil, 0)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestBlogServiceCreateSanitizesContent(t *testing.T) {
	svc := newBlogService(newFakeBlogRepo())

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{
		Title:   "XSS Attempt",
		Content: `<p>fine</p><script>alert("pwn")</script>`,
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, blog.Content, "<p>fine</p>")
	assert.NotContains(t, blog.Content, "<script>")
}

func TestBlogServiceCreateGeneratesUniqueSlugs(t *testing.T) {
	svc := newBlogService(newFakeBlogRepo())

	first, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Same Title", Content: "a"}, nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Same Title", Content: "b"}, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.Slug, "same-title-"))
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestBlogServiceCreateDefaultsToDraft(t *testing.T) {
	svc := newBlogService(newFakeBlogRepo())

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Untitled", Content: "draft text"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, blog.Status)
}

func TestBlogServiceCreateWithBanner(t *testing.T) {
	svc := newBlogService(newFakeBlogRepo())

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "With Banner", Content: "text"}, &BannerUpload{
		Filename: "banner.png",
		Data:     pngBytes(t, 640, 360),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, blog.BannerPath)
	assert.Equal(t, 640, blog.BannerWidth)
	assert.Equal(t, 360, blog.BannerHeight)
}

func TestBlogServiceCreateRejectsNonImageBanner(t *testing.T) {
	svc := newBlogService(newFakeBlogRepo())

	_, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Bad Banner", Content: "text"}, &BannerUpload{
		Filename: "banner.png",
		Data:     []byte("not an image"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBlogServiceListHidesDraftsFromReaders(t *testing.T) {
	repo := newFakeBlogRepo()
	svc := newBlogService(repo)

	_, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Draft", Content: "d", Status: "draft"}, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Live", Content: "l", Status: "published"}, nil)
	require.NoError(t, err)

	public, err := svc.List(context.Background(), models.BlogFilter{}, false)
	require.NoError(t, err)
	require.Len(t, public.Blogs, 1)
	assert.Equal(t, models.StatusPublished, public.Blogs[0].Status)

	admin, err := svc.List(context.Background(), models.BlogFilter{}, true)
	require.NoError(t, err)
	assert.Len(t, admin.Blogs, 2)
}

func TestBlogServiceGetBySlugDraftVisibility(t *testing.T) {
	repo := newFakeBlogRepo()
	svc := newBlogService(repo)

	draft, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Hidden", Content: "d", Status: "draft"}, nil)
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), draft.Slug, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	found, err := svc.GetBySlug(context.Background(), draft.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, found.ID)
}

func TestBlogServiceUpdateRegeneratesSlugOnTitleChange(t *testing.T) {
	repo := newFakeBlogRepo()
	svc := newBlogService(repo)

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Old Title", Content: "c"}, nil)
	require.NoError(t, err)
	oldSlug := blog.Slug

	newTitle := "New Title"
	updated, err := svc.Update(context.Background(), blog.ID, models.UpdateBlogRequest{Title: &newTitle}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Slug, "new-title-"))
	assert.NotEqual(t, oldSlug, updated.Slug)
}

// collidingSlugRepo fails Update with a unique violation a set number of
// times before delegating to the underlying fake.
type collidingSlugRepo struct {
	*fakeBlogRepo
	failures int
}

func (f *collidingSlugRepo) Update(ctx context.Context, blog *models.Blog) error {
	if f.failures > 0 {
		f.failures--
		return &pq.Error{Code: "23505", Constraint: "blogs_slug_key"}
	}
	return f.fakeBlogRepo.Update(ctx, blog)
}

func TestBlogServiceUpdateRetriesSlugCollision(t *testing.T) {
	repo := newFakeBlogRepo()
	svc := newBlogService(repo)

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Old Title", Content: "c"}, nil)
	require.NoError(t, err)

	colliding := &collidingSlugRepo{fakeBlogRepo: repo, failures: 1}
	svc = NewBlogService(colliding, &fakeBannerStore{}, nil, nil, nil, nil, nil, 0)

	newTitle := "New Title"
	updated, err := svc.Update(context.Background(), blog.ID, models.UpdateBlogRequest{Title: &newTitle}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.Slug, "new-title-"))
	assert.Zero(t, colliding.failures)
}

func TestBlogServiceDelete(t *testing.T) {
	repo := newFakeBlogRepo()
	svc := newBlogService(repo)

	blog, err := svc.Create(context.Background(), "author-1", models.CreateBlogRequest{Title: "Doomed", Content: "c"}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), blog.ID))
	_, err = svc.Get(context.Background(), blog.ID, true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
