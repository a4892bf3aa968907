package scheduler

import (
	"errors"
	"time"

	"github.com/tevino/abool"

	"github.com/buttonpad/buttonpad/internal/button"
)

// MinLead is the minimum distance between now and a task deadline.
const MinLead = 10 * time.Millisecond

var (
	ErrEmptyName        = errors.New("scheduler: task name must not be empty")
	ErrNilButton        = errors.New("scheduler: task button must not be nil")
	ErrNilAction        = errors.New("scheduler: task action must not be nil")
	ErrNonPositiveDelay = errors.New("scheduler: delay must be positive")
	ErrDeadlineTooSoon  = errors.New("scheduler: deadline must be at least 10ms ahead")
	ErrNotExecuting     = errors.New("scheduler: reschedule called outside the running task")
	ErrCancelled        = errors.New("scheduler: task was cancelled")
	ErrClosed           = errors.New("scheduler: closed")
)

// Action is the body of a scheduled task. The TaskContext is only valid until
// the action returns.
type Action func(tc *TaskContext)

// TaskContext is handed to a running Action. It identifies the task and is
// the only way to reschedule it.
type TaskContext struct {
	s      *Scheduler
	t      *task
	active abool.AtomicBool
}

// Name returns the task name given to Schedule.
func (tc *TaskContext) Name() string { return tc.t.name }

// Button returns the button the task was scheduled for.
func (tc *TaskContext) Button() button.Button { return tc.t.button }

// Repeat returns how many times the task has been rescheduled before this
// execution; it is 0 on the first firing.
func (tc *TaskContext) Repeat() int { return tc.t.repeat }

// Deadline returns the deadline this execution was scheduled for.
func (tc *TaskContext) Deadline() time.Time { return tc.t.at }

// Reschedule queues the running task again, delay from now. It fails with
// ErrNotExecuting once the action has returned, and with ErrCancelled when
// the task was cancelled while running.
func (tc *TaskContext) Reschedule(delay time.Duration) error {
	if tc == nil || !tc.active.IsSet() {
		return ErrNotExecuting
	}
	return tc.s.reschedule(tc.t, delay)
}

// CancelHandle cancels one scheduled task. It follows the task across
// reschedules.
type CancelHandle struct {
	s *Scheduler
	t *task
}

// Cancel removes the task if it is still queued and prevents a running
// execution from rescheduling it. It reports whether a queued entry was
// removed. Calling it again, or after the task fired, has no effect.
func (h *CancelHandle) Cancel() bool {
	if h == nil || h.s == nil {
		return false
	}
	return h.s.cancel(h.t)
}

// Name returns the name of the task behind the handle.
func (h *CancelHandle) Name() string {
	if h == nil || h.t == nil {
		return ""
	}
	return h.t.name
}
