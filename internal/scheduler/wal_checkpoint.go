package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const walCheckpointTimeout = 30 * time.Second

// Checkpointer is a SQLite database that can fold its WAL back into the main file
type Checkpointer interface {
	WALCheckpoint(ctx context.Context, mode string) error
	Name() string
}

// WALCheckpointJob runs a passive WAL checkpoint on the durable SQLite store
type WALCheckpointJob struct {
	db  Checkpointer
	log zerolog.Logger
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(db Checkpointer, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the checkpoint
func (j *WALCheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), walCheckpointTimeout)
	defer cancel()

	start := time.Now()
	if err := j.db.WALCheckpoint(ctx, "PASSIVE"); err != nil {
		return fmt.Errorf("checkpoint %s: %w", j.db.Name(), err)
	}
	j.log.Debug().
		Str("database", j.db.Name()).
		Dur("duration", time.Since(start)).
		Msg("WAL checkpoint completed")
	return nil
}
