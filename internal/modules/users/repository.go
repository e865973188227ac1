// Package users provides repository and service implementations for registered Discord users.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Repository handles users database operations
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "users").Logger(),
	}
}

const selectColumns = `user_id, server_id, channel_id, nickname, initial_balance, upbit_access_key, upbit_secret_key`

// FindByUserID returns the user, or nil if not registered
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+selectColumns+` FROM users WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return &user, nil
}

// Upsert registers or updates a user.
// Blank exchange keys leave previously stored keys untouched.
func (r *Repository) Upsert(ctx context.Context, user domain.User) error {
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, server_id, channel_id, nickname, initial_balance, upbit_access_key, upbit_secret_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			server_id = excluded.server_id,
			channel_id = excluded.channel_id,
			nickname = excluded.nickname,
			initial_balance = excluded.initial_balance,
			upbit_access_key = COALESCE(NULLIF(excluded.upbit_access_key, ''), users.upbit_access_key),
			upbit_secret_key = COALESCE(NULLIF(excluded.upbit_secret_key, ''), users.upbit_secret_key),
			updated_at = excluded.updated_at
	`,
		user.UserID, user.ServerID, user.ChannelID, user.Nickname, user.InitialBalance.String(),
		user.UpbitAccessKey, user.UpbitSecretKey, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.UserID, err)
	}
	return nil
}

// Delete removes a user if registered
func (r *Repository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}
	return nil
}

// FindTradeChannels returns the distinct channels that have at least one user with exchange keys
func (r *Repository) FindTradeChannels(ctx context.Context) ([]string, error) {
	var channels []string
	err := r.db.SelectContext(ctx, &channels, `
		SELECT DISTINCT channel_id FROM users
		WHERE upbit_access_key != '' AND upbit_secret_key != '' AND channel_id != ''
		ORDER BY channel_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trade channels: %w", err)
	}
	return channels, nil
}

// FindTradersByChannel returns the users of a channel that have exchange keys
func (r *Repository) FindTradersByChannel(ctx context.Context, channelID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT `+selectColumns+` FROM users
		WHERE channel_id = ? AND upbit_access_key != '' AND upbit_secret_key != ''
		ORDER BY user_id
	`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list traders of channel %s: %w", channelID, err)
	}
	return users, nil
}
