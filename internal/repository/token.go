package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nuvoor/careadmin/internal/model"
)

// ErrResetTokenInvalid covers unknown, expired and already consumed tokens alike.
var ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")

type ResetTokenRepository interface {
	ByValidResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// ByValidResetToken returns the account holding token when the token has not
// expired at now.
func (r *userRepository) ByValidResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	user := &model.User{}
	query := r.db.Rebind(`
		SELECT ` + userColumns + ` FROM users
		WHERE reset_token = ?
		AND reset_token_expires_at > ?
	`)

	err := r.db.GetContext(ctx, user, query, token, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ConsumeResetToken atomically swaps in the new password hash and clears the
// reset token. The match on token and expiry and the write happen in one
// statement, so of two concurrent callers with the same token only the first
// updates a row; the second gets ErrResetTokenInvalid.
func (r *userRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error {
	now = now.UTC()
	query := r.db.Rebind(`
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_token_expires_at = NULL, updated_at = ?
		WHERE reset_token = ?
		AND reset_token_expires_at > ?
	`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, now, token, now)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrResetTokenInvalid
	}

	return nil
}

// ClearExpiredResetTokens removes reset tokens whose window closed before now.
// Expired tokens can never match ByValidResetToken, so this is housekeeping
// only and is not called on any request path.
func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query := r.db.Rebind(`
		UPDATE users
		SET reset_token = NULL, reset_token_expires_at = NULL
		WHERE reset_token IS NOT NULL
		AND reset_token_expires_at <= ?
	`)

	result, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
