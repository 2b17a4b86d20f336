// Package work runs fire-and-forget background tasks on a bounded queue.
//
// Task failures go to an error channel that the queue observes itself: they
// are logged and counted, never returned to whoever submitted the task.
package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTaskTimeout bounds a single task run
const DefaultTaskTimeout = 30 * time.Second

// ErrQueueClosed is reported when a task is submitted after Close
var ErrQueueClosed = errors.New("work queue closed")

// Task is a unit of background work
type Task struct {
	Name    string
	Subject string // What the task operates on, for logging
	Run     func(ctx context.Context) error
}

// TaskError wraps a failed task
type TaskError struct {
	Task    string
	Subject string
	Err     error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s(%s): %v", e.Task, e.Subject, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Config sizes a Queue
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// Stats is a snapshot of Queue counters
type Stats struct {
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// Queue executes tasks on a fixed pool of workers
type Queue struct {
	tasks   chan Task
	errs    chan *TaskError
	timeout time.Duration
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool

	workers  sync.WaitGroup
	observer sync.WaitGroup

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewQueue starts the workers and the error observer
func NewQueue(cfg Config, log zerolog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}

	q := &Queue{
		tasks:   make(chan Task, cfg.QueueSize),
		errs:    make(chan *TaskError, cfg.QueueSize),
		timeout: cfg.TaskTimeout,
		log:     log.With().Str("component", "work_queue").Logger(),
	}

	q.observer.Add(1)
	go q.observe()

	for i := 0; i < cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	return q
}

// Submit enqueues t without blocking. It returns false when the queue is
// full or closed; the task is then dropped.
func (q *Queue) Submit(t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.dropped.Add(1)
		q.log.Warn().Str("task", t.Name).Str("subject", t.Subject).Err(ErrQueueClosed).Msg("Task dropped")
		return false
	}

	select {
	case q.tasks <- t:
		q.submitted.Add(1)
		return true
	default:
		q.dropped.Add(1)
		q.log.Warn().Str("task", t.Name).Str("subject", t.Subject).Msg("Work queue full, task dropped")
		return false
	}
}

func (q *Queue) work() {
	defer q.workers.Done()
	for t := range q.tasks {
		q.execute(t)
	}
}

func (q *Queue) execute(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.Run(ctx)
	}()

	if err != nil {
		q.failed.Add(1)
		q.errs <- &TaskError{Task: t.Name, Subject: t.Subject, Err: err}
		return
	}

	q.completed.Add(1)
	q.log.Debug().
		Str("task", t.Name).
		Str("subject", t.Subject).
		Dur("duration", time.Since(start)).
		Msg("Task completed")
}

func (q *Queue) observe() {
	defer q.observer.Done()
	for err := range q.errs {
		q.log.Error().
			Err(err.Err).
			Str("task", err.Task).
			Str("subject", err.Subject).
			Msg("Background task failed")
	}
}

// Close stops accepting tasks and waits for queued ones to finish or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.workers.Wait()
		close(q.errs)
		q.observer.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("work queue drain interrupted: %w", ctx.Err())
	}
}

// Stats returns current counters
func (q *Queue) Stats() Stats {
	return Stats{
		Submitted: q.submitted.Load(),
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Pending:   len(q.tasks),
	}
}
