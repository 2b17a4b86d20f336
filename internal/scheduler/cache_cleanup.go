package scheduler

import (
	"github.com/rs/zerolog"
)

// Expirer removes expired entries and reports how many were dropped
type Expirer interface {
	DeleteExpired() int
	Size() int
}

// CacheCleanupJob evicts expired entries from the in-memory ephemeral store
type CacheCleanupJob struct {
	store Expirer
	log   zerolog.Logger
}

// NewCacheCleanupJob creates a new CacheCleanupJob
func NewCacheCleanupJob(store Expirer, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		store: store,
		log:   log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run executes the cleanup
func (j *CacheCleanupJob) Run() error {
	removed := j.store.DeleteExpired()
	j.log.Info().
		Int("removed", removed).
		Int("remaining", j.store.Size()).
		Msg("Ephemeral cache cleanup completed")
	return nil
}
