// Package trades provides the repository for AI trading configurations.
package trades

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultModel is used when a record does not name one
const DefaultModel = "gpt"

// Repository handles ai_tradings database operations.
// Agent history is stored as a msgpack blob in last_messages.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// tradeRow mirrors the ai_tradings table
type tradeRow struct {
	ID            string `db:"id"`
	UserID        string `db:"user_id"`
	SystemMessage string `db:"system_message"`
	UserMessage   string `db:"user_message"`
	CronTime      string `db:"cron_time"`
	Model         string `db:"model"`
	LastMessages  []byte `db:"last_messages"`
	UpdatedAt     int64  `db:"updated_at"`
}

const selectColumns = `id, user_id, system_message, user_message, cron_time, model, last_messages, updated_at`

// NewRepository creates a new trade repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "trades").Logger(),
	}
}

// FindAll returns every trade record
func (r *Repository) FindAll(ctx context.Context) ([]domain.TradeRecord, error) {
	var rows []tradeRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+selectColumns+` FROM ai_tradings ORDER BY updated_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}

	records := make([]domain.TradeRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toDomain()
		if err != nil {
			r.log.Warn().Err(err).Str("trade_id", row.ID).Msg("Dropping undecodable trade history")
		}
		records = append(records, rec)
	}
	return records, nil
}

// FindByID returns the record with id, or nil if none exists
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.TradeRecord, error) {
	return r.findOne(ctx, `SELECT `+selectColumns+` FROM ai_tradings WHERE id = ?`, id)
}

// FindByUserID returns the user's record, or nil if none exists
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error) {
	return r.findOne(ctx, `SELECT `+selectColumns+` FROM ai_tradings WHERE user_id = ?`, userID)
}

func (r *Repository) findOne(ctx context.Context, query string, arg string) (*domain.TradeRecord, error) {
	var row tradeRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", arg, err)
	}

	rec, err := row.toDomain()
	if err != nil {
		r.log.Warn().Err(err).Str("trade_id", row.ID).Msg("Dropping undecodable trade history")
	}
	return &rec, nil
}

// Upsert creates or replaces the configuration of rec.UserID. The record id
// and stored history survive updates. Returns the stored record.
func (r *Repository) Upsert(ctx context.Context, rec domain.TradeRecord) (*domain.TradeRecord, error) {
	if rec.UserID == "" {
		return nil, fmt.Errorf("trade record requires a user id")
	}
	if rec.Model == "" {
		rec.Model = DefaultModel
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_tradings (id, user_id, system_message, user_message, cron_time, model, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			system_message = excluded.system_message,
			user_message = excluded.user_message,
			cron_time = excluded.cron_time,
			model = excluded.model,
			updated_at = excluded.updated_at
	`, uuid.NewString(), rec.UserID, rec.SystemMessage, rec.UserMessage, rec.CronTime, rec.Model, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert trade for user %s: %w", rec.UserID, err)
	}

	return r.FindByUserID(ctx, rec.UserID)
}

// DeleteByUserID removes the user's record if present
func (r *Repository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ai_tradings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete trade for user %s: %w", userID, err)
	}
	return nil
}

// UpdateLastMessages stores the history of the latest session
func (r *Repository) UpdateLastMessages(ctx context.Context, id string, history []domain.HistoryEntry) error {
	blob, err := msgpack.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE ai_tradings SET last_messages = ?, updated_at = ? WHERE id = ?`,
		blob, time.Now().Unix(), id,
	); err != nil {
		return fmt.Errorf("failed to store history for trade %s: %w", id, err)
	}
	return nil
}

func (row tradeRow) toDomain() (domain.TradeRecord, error) {
	rec := domain.TradeRecord{
		ID:            row.ID,
		UserID:        row.UserID,
		SystemMessage: row.SystemMessage,
		UserMessage:   row.UserMessage,
		CronTime:      row.CronTime,
		Model:         row.Model,
		UpdatedAt:     time.Unix(row.UpdatedAt, 0),
	}
	if len(row.LastMessages) == 0 {
		return rec, nil
	}
	if err := msgpack.Unmarshal(row.LastMessages, &rec.LastMessages); err != nil {
		rec.LastMessages = nil
		return rec, fmt.Errorf("failed to decode history: %w", err)
	}
	return rec, nil
}
