package scheduler

import (
	"sync"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// Options configure a Scheduler. The zero value is usable.
type Options struct {
	Logger logger.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// PanicHandler receives the task name and the recovered value of a task
	// that panicked. Defaults to logging through Logger.
	PanicHandler func(task string, v any)
}

// Scheduler runs one-shot or self-rescheduling tasks at absolute deadlines on
// a single worker goroutine.
type Scheduler struct {
	mu      sync.Mutex
	queue   taskHeap
	entries map[taskKey]*task
	seq     uint64
	closed  bool

	wake      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	clock   func() time.Time
	log     logger.Logger
	onPanic func(string, any)
}

// New creates a Scheduler. The worker goroutine is not started until the
// first task is scheduled.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		entries: make(map[taskKey]*task),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		clock:   opts.Clock,
		log:     logger.OrNop(opts.Logger),
		onPanic: opts.PanicHandler,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.onPanic == nil {
		s.onPanic = func(name string, v any) {
			s.log.Error("scheduled task %q panicked: %v", name, v)
		}
	}
	return s
}

// Schedule queues action to run once, delay from now, and returns the handle
// that cancels it. delay must be at least MinLead.
func (s *Scheduler) Schedule(name string, b button.Button, delay time.Duration, action Action) (*CancelHandle, error) {
	switch {
	case name == "":
		return nil, ErrEmptyName
	case b == nil:
		return nil, ErrNilButton
	case action == nil:
		return nil, ErrNilAction
	}
	if err := validateDelay(delay); err != nil {
		return nil, err
	}

	t := &task{name: name, button: b, action: action, index: -1}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.insertLocked(t, delay)
	s.mu.Unlock()

	s.startOnce.Do(func() { go s.run() })
	return &CancelHandle{s: s, t: t}, nil
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops the worker. Queued tasks are dropped and later Schedule calls
// fail with ErrClosed. A task that is running when Close is called finishes.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for _, t := range s.queue {
			t.index = -1
		}
		s.queue = nil
		s.entries = make(map[taskKey]*task)
		s.mu.Unlock()
		close(s.done)
	})
}

func validateDelay(delay time.Duration) error {
	if delay <= 0 {
		return ErrNonPositiveDelay
	}
	if delay < MinLead {
		return ErrDeadlineTooSoon
	}
	return nil
}

// insertLocked keys t at now+delay and queues it. Caller must hold s.mu.
func (s *Scheduler) insertLocked(t *task, delay time.Duration) {
	t.at = s.clock().Add(delay)
	s.seq++
	t.key = taskKey{deadline: t.at.UnixMilli(), seq: s.seq}
	s.entries[t.key] = t
	heapPush(&s.queue, t)
	if t.index == 0 {
		// new earliest deadline, interrupt the worker's sleep
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// removeLocked is the compare-and-remove shared by cancel and the worker: it
// only succeeds while t is the task stored under its current key.
func (s *Scheduler) removeLocked(t *task) bool {
	if cur, ok := s.entries[t.key]; !ok || cur != t {
		return false
	}
	delete(s.entries, t.key)
	return heapRemove(&s.queue, t)
}

func (s *Scheduler) cancel(t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.cancelled = true
	return s.removeLocked(t)
}

func (s *Scheduler) reschedule(t *task, delay time.Duration) error {
	if err := validateDelay(delay); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if t.cancelled {
		return ErrCancelled
	}
	s.removeLocked(t)
	t.repeat++
	s.insertLocked(t, delay)
	return nil
}

// next pops the earliest task if it is due. Otherwise it returns how long to
// wait for it, or a negative duration when the queue is empty.
func (s *Scheduler) next() (*task, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, false
	}
	if len(s.queue) == 0 {
		return nil, -1, true
	}
	head := s.queue[0]
	wait := head.at.Sub(s.clock())
	if wait > 0 {
		return nil, wait, true
	}
	s.removeLocked(head)
	return head, 0, true
}

// run is the worker goroutine. It sleeps until the earliest deadline, or
// until woken by an earlier insertion.
func (s *Scheduler) run() {
	for {
		t, wait, ok := s.next()
		if !ok {
			return
		}
		if t != nil {
			s.execute(t)
			continue
		}

		var timerCh <-chan time.Time
		var timer *time.Timer
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timerCh = timer.C
		}
		select {
		case <-timerCh:
		case <-s.wake:
		case <-s.done:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (s *Scheduler) execute(t *task) {
	tc := &TaskContext{s: s, t: t}
	tc.active.Set()
	defer func() {
		tc.active.UnSet()
		if r := recover(); r != nil {
			s.onPanic(t.name, r)
		}
	}()
	t.action(tc)
}
