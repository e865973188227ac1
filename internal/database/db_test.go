package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MigratesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aitrader.db")

	db, err := New(Config{Path: path, Name: "aitrader"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// Idempotent
	require.NoError(t, db.Migrate())

	var count int
	err = db.Conn().Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'ai_tradings')")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Equal(t, path, db.Path())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "tx.db"), Name: "tx"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	boom := errors.New("boom")
	err = WithTransaction(db.Conn().DB, func(tx *sql.Tx) error {
		_, execErr := tx.Exec("INSERT INTO users (user_id, created_at, updated_at) VALUES ('u1', 0, 0)")
		require.NoError(t, execErr)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "panic.db"), Name: "panic"})
	require.NoError(t, err)
	defer db.Close()

	err = WithTransaction(db.Conn().DB, func(tx *sql.Tx) error {
		panic("unexpected")
	})
	assert.ErrorContains(t, err, "panic in transaction")
}

func TestWALCheckpoint(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "wal.db"), Name: "wal"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec("INSERT INTO users (user_id, channel_id, initial_balance, created_at, updated_at) VALUES ('u1', 'c1', '1000', 1, 1)")
	require.NoError(t, err)

	res, err := db.WALCheckpoint(CheckpointPassive)
	require.NoError(t, err)
	assert.False(t, res.Busy)
	assert.GreaterOrEqual(t, res.Frames, res.Checkpointed)

	res, err = db.WALCheckpoint("")
	require.NoError(t, err)
	assert.False(t, res.Busy)
}

func TestWALCheckpoint_RejectsUnknownMode(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "wal.db"), Name: "wal"})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.WALCheckpoint("PASSIVE); DROP TABLE users; --")
	assert.Error(t, err)
}
