package scheduler

import (
	"context"
	"sync"
	"time"
)

// Priority orders waiting tasks. Higher priorities are always admitted
// before lower ones regardless of submission order.
type Priority int

const (
	// PriorityNormal is the default for regular requests (zero value).
	PriorityNormal Priority = iota

	// PriorityLow is for background work (prefetching, warming).
	PriorityLow

	// PriorityHigh is for user-blocking requests.
	PriorityHigh
)

// dispatchOrder is the scan order when a slot frees.
var dispatchOrder = [...]Priority{PriorityHigh, PriorityNormal, PriorityLow}

// String returns the priority name for logs and metrics.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Operation is the unit of work a task executes. It must honor context
// cancellation: the scheduler cancels the context on timeout, explicit
// cancellation, and Close.
type Operation func(ctx context.Context) ([]byte, error)

// Task describes a unit of work to enqueue.
type Task struct {
	// ID identifies the task for cancellation. Generated when empty.
	ID string

	// Priority determines dispatch order. The zero value is PriorityNormal.
	Priority Priority

	// Operation is the work to run. Required.
	Operation Operation

	// Timeout is the per-task deadline, measured from admission (not from
	// submission). A non-positive value falls back to the configured
	// DefaultTimeout.
	Timeout time.Duration
}

// Result is the outcome of a task, delivered exactly once on the channel
// returned by Enqueue.
type Result struct {
	// TaskID identifies the originating task.
	TaskID string

	// Data is the operation's payload on success.
	Data []byte

	// Err is nil on success. On failure it is ErrTimeout, ErrCancelled,
	// ErrClosed, or the error the operation returned.
	Err error
}

// pendingTask is the scheduler-internal task state.
type pendingTask struct {
	task      Task
	result    chan Result
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
	once      sync.Once
}
