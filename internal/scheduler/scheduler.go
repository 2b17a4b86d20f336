// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus is the run history of one registered job
type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	LastRun      time.Time     `json:"last_run"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
	NextRun      time.Time     `json:"next_run"`
}

type jobEntry struct {
	id     cron.EntryID
	status JobStatus
}

// Scheduler manages maintenance jobs. A job whose previous run has not
// finished is skipped rather than run concurrently with itself.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*jobEntry
}

// New creates a new scheduler. Schedules take a leading seconds field.
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:  log,
		jobs: make(map[string]*jobEntry),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Len()).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers job under a cron schedule, e.g.
//   - "0 */10 * * * *" every ten minutes
//   - "@hourly"
//   - "@every 30s"
//
// Job names must be unique.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		s.execute(job)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[job.Name()] = &jobEntry{id: id, status: JobStatus{Name: job.Name(), Schedule: schedule}}
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")
	return nil
}

func (s *Scheduler) execute(job Job) error {
	start := time.Now()
	err := job.Run()
	elapsed := time.Since(start)

	s.record(job.Name(), start, elapsed, err)

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("duration", elapsed).
			Msg("Job failed")
		return err
	}
	s.log.Debug().Str("job", job.Name()).Dur("duration", elapsed).Msg("Job completed")
	return nil
}

func (s *Scheduler) record(name string, start time.Time, elapsed time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.jobs[name]
	if !ok {
		return
	}
	entry.status.Runs++
	entry.status.LastRun = start
	entry.status.LastDuration = elapsed
	entry.status.LastError = ""
	if err != nil {
		entry.status.Failures++
		entry.status.LastError = err.Error()
	}
}

// RunNow executes a job immediately, outside its schedule. Runs of
// registered jobs count towards Status.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.execute(job)
}

// Status returns the run history of every registered job, sorted by name
func (s *Scheduler) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		st := entry.status
		st.NextRun = s.cron.Entry(entry.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// cronLogger routes cron's own messages (panics, skipped runs) to zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
