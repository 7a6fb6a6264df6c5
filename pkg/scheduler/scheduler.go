package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Typed errors delivered on task result channels.
var (
	// ErrCancelled is returned when a task is cancelled explicitly, via
	// CancelAll, or because its caller's context ended while queued.
	ErrCancelled = errors.New("task cancelled")

	// ErrTimeout is returned when a task exceeds its deadline.
	ErrTimeout = errors.New("task timed out")

	// ErrClosed is returned when enqueueing on a closed scheduler.
	ErrClosed = errors.New("scheduler closed")

	// ErrNilOperation is returned when a task has no operation.
	ErrNilOperation = errors.New("task operation is nil")
)

// Config holds the scheduler configuration.
type Config struct {
	// MaxConcurrent is the number of tasks allowed to run in parallel.
	MaxConcurrent int

	// DefaultTimeout applies to tasks submitted without their own timeout.
	DefaultTimeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  5,
		DefaultTimeout: 30 * time.Second,
	}
}

// Status is a snapshot of scheduler load.
type Status struct {
	// Queued is the number of tasks waiting for a slot.
	Queued int

	// Active is the number of tasks currently running.
	Active int

	// MaxConcurrent is the configured slot count.
	MaxConcurrent int
}

// Scheduler dispatches tasks with bounded concurrency and priority-aware
// FIFO ordering. All methods are safe for concurrent use.
type Scheduler struct {
	mu sync.Mutex

	// One FIFO ring per priority, indexed by Priority. The dispatch scan
	// walks them from PriorityHigh down.
	rings  [3]*queue.Queue
	byID   map[string]*pendingTask
	active map[string]*pendingTask
	queued int
	closed bool

	config Config
	logger zerolog.Logger
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultConfig().DefaultTimeout
	}

	s := &Scheduler{
		byID:   make(map[string]*pendingTask),
		active: make(map[string]*pendingTask),
		config: cfg,
		logger: log.With().Str("component", "scheduler").Logger(),
	}
	for i := range s.rings {
		s.rings[i] = queue.New()
	}
	return s
}

// Enqueue admits a task. The returned channel delivers exactly one Result:
// the operation's outcome, ErrTimeout, ErrCancelled, or ErrClosed. The
// task's context is derived from ctx; cancelling ctx cancels the task.
func (s *Scheduler) Enqueue(ctx context.Context, task Task) <-chan Result {
	result := make(chan Result, 1)

	if task.Operation == nil {
		result <- Result{TaskID: task.ID, Err: ErrNilOperation}
		return result
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority < PriorityNormal || task.Priority > PriorityHigh {
		task.Priority = PriorityNormal
	}

	taskCtx, cancel := context.WithCancel(ctx)
	pt := &pendingTask{
		task:   task,
		result: result,
		ctx:    taskCtx,
		cancel: cancel,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		cancel()
		result <- Result{TaskID: task.ID, Err: ErrClosed}
		return result
	}

	TasksSubmitted.WithLabelValues(task.Priority.String()).Inc()

	s.rings[task.Priority].Add(pt)
	s.byID[task.ID] = pt
	s.queued++
	TasksQueued.Set(float64(s.queued))

	s.logger.Debug().
		Str("task_id", task.ID).
		Str("priority", task.Priority.String()).
		Int("queued", s.queued).
		Msg("Task enqueued")

	s.dispatchLocked()
	return result
}

// Cancel cooperatively cancels a task. A queued task fails immediately with
// ErrCancelled; a running task has its context cancelled and fails once the
// operation honors the signal. Returns false if the task is unknown.
func (s *Scheduler) Cancel(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(taskID)
}

// CancelAll cancels every queued and running task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.byID)+len(s.active))
	for id := range s.byID {
		ids = append(ids, id)
	}
	for id := range s.active {
		ids = append(ids, id)
	}
	for _, id := range ids {
		s.cancelLocked(id)
	}

	s.logger.Debug().Int("cancelled", len(ids)).Msg("Cancelled all tasks")
}

// Status returns a snapshot of scheduler load.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Queued:        s.queued,
		Active:        len(s.active),
		MaxConcurrent: s.config.MaxConcurrent,
	}
}

// Close cancels all tasks and rejects further submissions with ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.CancelAll()
}

// cancelLocked cancels one task. Caller must hold s.mu.
func (s *Scheduler) cancelLocked(taskID string) bool {
	if pt, ok := s.byID[taskID]; ok {
		// Still queued: fail it now. The ring entry is skipped at dispatch.
		pt.cancelled = true
		pt.cancel()
		delete(s.byID, taskID)
		s.queued--
		TasksQueued.Set(float64(s.queued))
		s.deliver(pt, Result{TaskID: taskID, Err: ErrCancelled})
		TasksCompleted.WithLabelValues("cancelled").Inc()
		return true
	}

	if pt, ok := s.active[taskID]; ok {
		// Running: signal the operation and let run() report the outcome.
		pt.cancel()
		return true
	}

	return false
}

// dispatchLocked admits waiting tasks while slots are free, highest
// priority first, FIFO within a priority. Caller must hold s.mu.
func (s *Scheduler) dispatchLocked() {
	for len(s.active) < s.config.MaxConcurrent {
		pt := s.popLocked()
		if pt == nil {
			return
		}

		s.active[pt.task.ID] = pt
		TasksActive.Set(float64(len(s.active)))
		go s.run(pt)
	}
}

// popLocked removes and returns the next live waiting task, or nil.
// Caller must hold s.mu.
func (s *Scheduler) popLocked() *pendingTask {
	for _, prio := range dispatchOrder {
		ring := s.rings[prio]
		for ring.Length() > 0 {
			pt := ring.Remove().(*pendingTask)
			if pt.cancelled {
				// Already failed by Cancel; just drop the ring entry.
				continue
			}
			delete(s.byID, pt.task.ID)
			s.queued--
			TasksQueued.Set(float64(s.queued))

			if pt.ctx.Err() != nil {
				// Caller went away while the task was waiting.
				s.deliver(pt, Result{TaskID: pt.task.ID, Err: ErrCancelled})
				TasksCompleted.WithLabelValues("cancelled").Inc()
				continue
			}
			return pt
		}
	}
	return nil
}

// run executes one admitted task. The per-task timeout is measured from
// admission, independent of any transport-level timeout.
func (s *Scheduler) run(pt *pendingTask) {
	timeout := pt.task.Timeout
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}

	taskCtx, cancel := context.WithTimeout(pt.ctx, timeout)
	defer cancel()

	start := time.Now()
	data, err := pt.task.Operation(taskCtx)
	TaskDuration.WithLabelValues(pt.task.Priority.String()).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		// An operation that failed because we cancelled its context gets
		// the typed error; anything else propagates verbatim.
		switch {
		case errors.Is(taskCtx.Err(), context.DeadlineExceeded):
			err = ErrTimeout
			outcome = "timeout"
		case errors.Is(taskCtx.Err(), context.Canceled):
			err = ErrCancelled
			outcome = "cancelled"
		default:
			outcome = "error"
		}

		s.logger.Debug().
			Str("task_id", pt.task.ID).
			Str("outcome", outcome).
			Err(err).
			Msg("Task failed")
	}
	TasksCompleted.WithLabelValues(outcome).Inc()

	s.deliver(pt, Result{TaskID: pt.task.ID, Data: data, Err: err})

	s.mu.Lock()
	delete(s.active, pt.task.ID)
	TasksActive.Set(float64(len(s.active)))
	s.dispatchLocked()
	s.mu.Unlock()
}

// deliver sends a task's result exactly once.
func (s *Scheduler) deliver(pt *pendingTask, r Result) {
	pt.once.Do(func() {
		pt.result <- r
	})
}
