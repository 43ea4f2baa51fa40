package models

import "time"

// UserRole is the closed set of roles understood by the authorization layer.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an application user stored in the users table.
// Profile fields are optional and not security-relevant.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name,omitempty"`
	LastName     string    `db:"last_name" json:"last_name,omitempty"`
	Website      string    `db:"website" json:"website,omitempty"`
	Facebook     string    `db:"facebook" json:"facebook,omitempty"`
	Instagram    string    `db:"instagram" json:"instagram,omitempty"`
	LinkedIn     string    `db:"linkedin" json:"linkedin,omitempty"`
	X            string    `db:"x" json:"x,omitempty"`
	YouTube      string    `db:"youtube" json:"youtube,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateUserRequest carries the fields a user may change on their own
// profile. Nil means leave untouched.
type UpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=20"`
	Email     *string `json:"email" validate:"omitempty,email,max=100"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=100"`
	FirstName *string `json:"first_name" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Website   *string `json:"website" validate:"omitempty,url,max=200"`
	Facebook  *string `json:"facebook" validate:"omitempty,url,max=200"`
	Instagram *string `json:"instagram" validate:"omitempty,url,max=200"`
	LinkedIn  *string `json:"linkedin" validate:"omitempty,url,max=200"`
	X         *string `json:"x" validate:"omitempty,url,max=200"`
	YouTube   *string `json:"youtube" validate:"omitempty,url,max=200"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
