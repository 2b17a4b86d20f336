package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/config"
	"github.com/aristath/lifecandle/internal/scheduler"
)

const walCheckpointSchedule = "0 0 * * * *"

// RegisterJobs creates the scheduler and registers maintenance jobs.
// The scheduler is returned stopped.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)

	if container.MemoryStore != nil {
		job := scheduler.NewCacheCleanupJob(container.MemoryStore, log)
		if err := sched.AddJob(cfg.Cache.CleanupSchedule, job); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
	}

	if container.SQLiteDB != nil {
		job := scheduler.NewWALCheckpointJob(container.SQLiteDB, log)
		if err := sched.AddJob(walCheckpointSchedule, job); err != nil {
			return fmt.Errorf("failed to register %s: %w", job.Name(), err)
		}
	}

	container.Scheduler = sched
	return nil
}
