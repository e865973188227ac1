package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/aristath/aitrader/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWALCheckpointJob_Name(t *testing.T) {
	assert.Equal(t, "wal_checkpoint", NewWALCheckpointJob(nil).Name())
}

func TestWALCheckpointJob_Run_NoDatabase(t *testing.T) {
	job := NewWALCheckpointJob(nil)
	job.SetLogger(zerolog.New(nil).Level(zerolog.Disabled))

	assert.NoError(t, job.Run())
}

func TestWALCheckpointJob_Run(t *testing.T) {
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "wal.db"), Name: "aitrader"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	assert.NoError(t, NewWALCheckpointJob(db).Run())
}
