package scheduler

import (
	"github.com/aristath/aitrader/internal/database"
	"github.com/rs/zerolog"
)

// WAL size above which a passive checkpoint is reported as lagging
const largeWALFrames = 1000

// WALCheckpointJob checkpoints the WAL file and reports its size
type WALCheckpointJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(db *database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		log: zerolog.Nop(),
		db:  db,
	}
}

// SetLogger sets the logger for the job
func (j *WALCheckpointJob) SetLogger(log zerolog.Logger) {
	j.log = log
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes a passive checkpoint
func (j *WALCheckpointJob) Run() error {
	if j.db == nil {
		return nil
	}

	res, err := j.db.WALCheckpoint(database.CheckpointPassive)
	if err != nil {
		j.log.Warn().Err(err).Str("database", j.db.Name()).Msg("Failed to checkpoint WAL")
		return nil
	}

	if res.Frames > largeWALFrames {
		j.log.Warn().
			Str("database", j.db.Name()).
			Int("wal_frames", res.Frames).
			Int("checkpointed", res.Checkpointed).
			Bool("busy", res.Busy).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", j.db.Name()).
			Int("wal_frames", res.Frames).
			Msg("WAL checkpoint status OK")
	}

	return nil
}
