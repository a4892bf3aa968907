// Package scheduler provides the deadline scheduler that drives deferred and
// repeating button gestures. It implements a single-goroutine worker over a
// min-heap of tasks ordered by (deadline in milliseconds, insertion sequence),
// so that tasks sharing a millisecond fire in the order they were scheduled.
//
// A task is cancelled through the CancelHandle returned by Schedule. A task
// repeats by calling Reschedule on the TaskContext it is handed while it runs;
// that context stops working once the task returns, which is how the
// scheduler enforces that only a running task can reschedule itself.
//
// The worker is started lazily by the first Schedule call and runs until
// Close. Panics raised by a task are recovered and handed to the configured
// panic handler; the worker keeps running.
package scheduler
