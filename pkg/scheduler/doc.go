// Package scheduler provides a bounded-concurrency, priority-aware
// dispatcher for asynchronous request tasks.
//
// At most MaxConcurrent tasks run at once. Waiting tasks are held in one
// FIFO ring per priority; when a slot frees, the highest-priority,
// earliest-submitted task is admitted next. Among equal priorities,
// dispatch order equals submission order.
//
// Each task carries its own timeout and is cancellable cooperatively: the
// task's context is cancelled and the operation is expected to honor it.
// The scheduler never retries; a failed task reaches its caller exactly as
// the operation reported it.
//
// # Basic Usage
//
//	sched := scheduler.New(scheduler.DefaultConfig())
//	defer sched.Close()
//
//	result := sched.Enqueue(ctx, scheduler.Task{
//		Priority:  scheduler.PriorityHigh,
//		Timeout:   10 * time.Second,
//		Operation: func(ctx context.Context) ([]byte, error) {
//			return transport.Call(ctx, req)
//		},
//	})
//
//	r := <-result
//	if r.Err != nil {
//		// typed error: scheduler.ErrTimeout, scheduler.ErrCancelled, or
//		// whatever the operation returned
//	}
package scheduler
