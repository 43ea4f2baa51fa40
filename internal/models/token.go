package models

import "time"

// RefreshToken is one registry record for an issued refresh token. The token
// is valid only while its record exists: deleting the row revokes it even if
// the signature and embedded expiry are still good.
type RefreshToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
