package models

import "time"

// Comment is a reader comment attached to a blog post.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	BlogID    string    `db:"blog_id" json:"blog_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Like marks that a user liked a blog post; (blog_id, user_id) is unique.
type Like struct {
	ID        string    `db:"id" json:"id"`
	BlogID    string    `db:"blog_id" json:"blog_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
