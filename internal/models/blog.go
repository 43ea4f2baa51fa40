package models

import "time"

// BlogStatus marks a post as draft or published. Drafts are visible to
// admins only.
type BlogStatus string

const (
	StatusDraft     BlogStatus = "draft"
	StatusPublished BlogStatus = "published"
)

// Valid reports whether the status is one of the known values.
func (s BlogStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Blog represents a post stored in the blogs table. Content is sanitized
// HTML; the banner lives on local storage and is referenced by path.
type Blog struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Slug          string     `db:"slug" json:"slug"`
	Content       string     `db:"content" json:"content"`
	BannerPath    string     `db:"banner_path" json:"banner_path,omitempty"`
	BannerWidth   int        `db:"banner_width" json:"banner_width,omitempty"`
	BannerHeight  int        `db:"banner_height" json:"banner_height,omitempty"`
	AuthorID      string     `db:"author_id" json:"author_id"`
	Status        BlogStatus `db:"status" json:"status"`
	LikesCount    int        `db:"likes_count" json:"likes_count"`
	CommentsCount int        `db:"comments_count" json:"comments_count"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateBlogRequest holds the payload for publishing a post. Content is raw
// HTML from the editor and gets sanitized before storage.
type CreateBlogRequest struct {
	Title   string `json:"title" form:"title" validate:"required,max=180"`
	Content string `json:"content" form:"content" validate:"required"`
	Status  string `json:"status" form:"status" validate:"omitempty,oneof=draft published"`
}

// UpdateBlogRequest carries partial changes to a post. Nil means leave
// untouched.
type UpdateBlogRequest struct {
	Title   *string `json:"title" form:"title" validate:"omitempty,max=180"`
	Content *string `json:"content" form:"content" validate:"omitempty"`
	Status  *string `json:"status" form:"status" validate:"omitempty,oneof=draft published"`
}

// BlogFilter captures list criteria. A nil Status means no status filter;
// AuthorID narrows to one author's posts.
type BlogFilter struct {
	Status   *BlogStatus
	AuthorID string
	Page     int
	PageSize int
}
