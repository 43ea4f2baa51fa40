package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/codewithsadee/blog-api/internal/models"
)

// LikeRepository provides database access for blog likes.
type LikeRepository struct {
	db *sqlx.DB
}

// NewLikeRepository creates a new instance of LikeRepository.
func NewLikeRepository(db *sqlx.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create records a like. The (blog_id, user_id) unique constraint rejects
// duplicates; the violation bubbles up unwrapped.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO likes (id, blog_id, user_id, created_at) VALUES (:id, :blog_id, :user_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, like); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create like: %w", err)
	}
	return nil
}

// Delete removes the user's like on a blog post and reports whether a row
// was actually deleted.
func (r *LikeRepository) Delete(ctx context.Context, blogID, userID string) (bool, error) {
	const query = `DELETE FROM likes WHERE blog_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, blogID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return n > 0, nil
}
