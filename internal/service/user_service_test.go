package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/codewithsadee/blog-api/internal/models"
	appErrors "github.com/codewithsadee/blog-api/pkg/errors"
	"github.com/codewithsadee/blog-api/pkg/jobs"
)

type fakeProfileRepo struct {
	users   map[string]*models.User
	deleted []string
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{users: map[string]*models.User{}}
}

func (f *fakeProfileRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeProfileRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, user := range f.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (f *fakeProfileRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeProfileRepo) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessionRegistry struct {
	purged []string
}

func (f *fakeSessionRegistry) DeleteByUser(_ context.Context, userID string) error {
	f.purged = append(f.purged, userID)
	return nil
}

type fakeBannerIndex struct {
	paths map[string][]string
}

func (f *fakeBannerIndex) BannerPathsByAuthor(_ context.Context, authorID string) ([]string, error) {
	return f.paths[authorID], nil
}

type fakeQueue struct {
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func newUserService() (*UserService, *fakeProfileRepo, *fakeSessionRegistry, *fakeQueue) {
	repo := newFakeProfileRepo()
	sessions := &fakeSessionRegistry{}
	banners := &fakeBannerIndex{paths: map[string][]string{"user-1": {"banners/a.png", "banners/b.png"}}}
	queue := &fakeQueue{}
	svc := NewUserService(repo, sessions, banners, queue, nil, nil)
	return svc, repo, sessions, queue
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc, _, _, _ := newUserService()

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateProfileFields(t *testing.T) {
	svc, repo, _, _ := newUserService()
	repo.users["user-1"] = &models.User{ID: "user-1", Username: "old", Email: "old@example.com", Role: models.RoleUser}

	username := "newname"
	website := "https://example.com"
	updated, err := svc.Update(context.Background(), "user-1", models.UpdateUserRequest{Username: &username, Website: &website})
	require.NoError(t, err)
	assert.Equal(t, "newname", updated.Username)
	assert.Equal(t, "https://example.com", updated.Website)
	assert.Equal(t, "old@example.com", updated.Email)
}

func TestUserServiceUpdateRehashesPassword(t *testing.T) {
	svc, repo, _, _ := newUserService()
	repo.users["user-1"] = &models.User{ID: "user-1", Username: "reader", Email: "r@example.com", Role: models.RoleUser}

	password := "newsecret"
	updated, err := svc.Update(context.Background(), "user-1", models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	assert.NotEqual(t, password, updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)))
}

func TestUserServiceUpdateInvalidPayload(t *testing.T) {
	svc, repo, _, _ := newUserService()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleUser}

	bad := "not-a-url"
	_, err := svc.Update(context.Background(), "user-1", models.UpdateUserRequest{Website: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteCascades(t *testing.T) {
	svc, repo, sessions, queue := newUserService()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleAdmin}

	require.NoError(t, svc.Delete(context.Background(), "user-1"))
	assert.Equal(t, []string{"user-1"}, repo.deleted)
	assert.Equal(t, []string{"user-1"}, sessions.purged)

	require.Len(t, queue.jobs, 1)
	paths, ok := queue.jobs[0].Payload.([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"banners/a.png", "banners/b.png"}, paths)
}

func TestUserServiceListPagination(t *testing.T) {
	svc, repo, _, _ := newUserService()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleUser}
	repo.users["user-2"] = &models.User{ID: "user-2", Role: models.RoleAdmin}

	admin := models.RoleAdmin
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Role: &admin})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
