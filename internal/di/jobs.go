package di

import (
	"fmt"

	"github.com/aristath/aitrader/internal/scheduler"
	"github.com/rs/zerolog"
)

// WALCheckpointSchedule runs the checkpoint every hour on the hour
const WALCheckpointSchedule = "0 0 * * * *"

// JobInstances holds maintenance jobs registered next to the trading schedules
type JobInstances struct {
	WALCheckpoint *scheduler.WALCheckpointJob
}

// RegisterJobs registers maintenance jobs with the scheduler
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is not initialized")
	}

	instances := &JobInstances{}

	walCheckpoint := scheduler.NewWALCheckpointJob(container.DB)
	walCheckpoint.SetLogger(log.With().Str("job", "wal_checkpoint").Logger())
	if _, err := container.Scheduler.AddJob(WALCheckpointSchedule, walCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}
	instances.WALCheckpoint = walCheckpoint

	log.Info().Msg("Maintenance jobs registered")
	return instances, nil
}
