package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/codewithsadee/blog-api/internal/models"
)

const blogColumns = `id, title, slug, content, banner_path, banner_width, banner_height, author_id, status, likes_count, comments_count, created_at, updated_at`

// BlogRepository provides database access for blog posts.
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository creates a new instance of BlogRepository.
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

// Create inserts a new blog post. Slug collisions surface as unique
// violations for the service to resolve.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	const query = `INSERT INTO blogs (id, title, slug, content, banner_path, banner_width, banner_height, author_id, status, likes_count, comments_count, created_at, updated_at) VALUES (:id, :title, :slug, :content, :banner_path, :banner_width, :banner_height, :author_id, :status, :likes_count, :comments_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}

// FindByID returns a blog post by identifier.
func (r *BlogRepository) FindByID(ctx context.Context, id string) (*models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE id = $1 LIMIT 1`
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blog by id: %w", err)
	}
	return &blog, nil
}

// FindBySlug returns a blog post by its URL slug.
func (r *BlogRepository) FindBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs WHERE slug = $1 LIMIT 1`
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blog by slug: %w", err)
	}
	return &blog, nil
}

// List returns blog posts matching the filter, newest first, with total count.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	baseQuery := `FROM blogs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", blogColumns, baseQuery, pageSize, offset)

	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}

	return blogs, total, nil
}

// Update persists mutable fields of a blog post.
func (r *BlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	blog.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blogs SET title = :title, slug = :slug, content = :content, banner_path = :banner_path, banner_width = :banner_width, banner_height = :banner_height, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, blog); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update blog: %w", err)
	}
	return nil
}

// Delete removes a blog post. Comments and likes cascade at the schema level.
func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM blogs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	return nil
}

// AdjustLikes moves the denormalised likes counter by delta.
func (r *BlogRepository) AdjustLikes(ctx context.Context, id string, delta int) error {
	const query = `UPDATE blogs SET likes_count = GREATEST(likes_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("adjust blog likes: %w", err)
	}
	return nil
}

// AdjustComments moves the denormalised comments counter by delta.
func (r *BlogRepository) AdjustComments(ctx context.Context, id string, delta int) error {
	const query = `UPDATE blogs SET comments_count = GREATEST(comments_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("adjust blog comments: %w", err)
	}
	return nil
}

// BannerPathsByAuthor lists banner files owned by one author, used to clean
// storage when the account is removed.
func (r *BlogRepository) BannerPathsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	const query = `SELECT banner_path FROM blogs WHERE author_id = $1 AND banner_path <> ''`
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, query, authorID); err != nil {
		return nil, fmt.Errorf("list banner paths: %w", err)
	}
	return paths, nil
}
