package model

import (
	"time"
)

type User struct {
	ID                  string     `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	ResetToken          *string    `db:"reset_token" json:"-"` // Set only while a reset request is outstanding
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// SetResetToken records an outstanding reset request. Token and expiry are
// always written together.
func (u *User) SetResetToken(token string, expiresAt time.Time) {
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
}

// ClearResetToken drops any outstanding reset request.
func (u *User) ClearResetToken() {
	u.ResetToken = nil
	u.ResetTokenExpiresAt = nil
}

// HasPendingReset reports whether a reset token is stored and still inside
// its validity window at now.
func (u *User) HasPendingReset(now time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return u.ResetTokenExpiresAt.After(now)
}
