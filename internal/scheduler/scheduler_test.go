package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// recorder collects task firings from the worker goroutine.
type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) action(name string) Action {
	return func(*TaskContext) {
		r.mu.Lock()
		r.names = append(r.names, name)
		r.mu.Unlock()
	}
}

func (r *recorder) fired() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(Options{})
	t.Cleanup(s.Close)
	return s
}

func TestScheduler_ScheduleValidation(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(*TaskContext) {}

	tests := []struct {
		name    string
		task    string
		button  button.Button
		delay   time.Duration
		action  Action
		wantErr error
	}{
		{"empty name", "", button.KeyMenu, time.Second, noop, ErrEmptyName},
		{"nil button", "t", nil, time.Second, noop, ErrNilButton},
		{"nil action", "t", button.KeyMenu, time.Second, nil, ErrNilAction},
		{"zero delay", "t", button.KeyMenu, 0, noop, ErrNonPositiveDelay},
		{"negative delay", "t", button.KeyMenu, -time.Second, noop, ErrNonPositiveDelay},
		{"below minimum lead", "t", button.KeyMenu, 5 * time.Millisecond, noop, ErrDeadlineTooSoon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := s.Schedule(tt.task, tt.button, tt.delay, tt.action)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if h != nil {
				t.Fatal("expected nil handle on error")
			}
		})
	}
	if s.Pending() != 0 {
		t.Fatalf("rejected tasks must not be queued, got %d pending", s.Pending())
	}
}

func TestScheduler_ScheduleAndFire(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	if _, err := s.Schedule("click", button.KeyLCD1, 50*time.Millisecond, r.action("click")); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := r.fired(); len(got) != 1 || got[0] != "click" {
		t.Fatalf("expected click to fire once, got %v", got)
	}
	if s.Pending() != 0 {
		t.Errorf("expected empty queue, got %d", s.Pending())
	}
}

func TestScheduler_FiresInDeadlineOrder(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	// inserted latest-first so that each insert becomes the new earliest
	for _, tc := range []struct {
		name  string
		delay time.Duration
	}{
		{"third", 150 * time.Millisecond},
		{"second", 100 * time.Millisecond},
		{"first", 50 * time.Millisecond},
	} {
		if _, err := s.Schedule(tc.name, button.KeyLCD1, tc.delay, r.action(tc.name)); err != nil {
			t.Fatalf("schedule %s: %v", tc.name, err)
		}
	}

	time.Sleep(400 * time.Millisecond)

	got := r.fired()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScheduler_EarlierInsertWakesWorker(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	if _, err := s.Schedule("slow", button.KeyLCD1, 2*time.Second, r.action("slow")); err != nil {
		t.Fatal(err)
	}
	// let the worker go to sleep on the 2s deadline
	time.Sleep(50 * time.Millisecond)
	if _, err := s.Schedule("fast", button.KeyLCD2, 50*time.Millisecond, r.action("fast")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(250 * time.Millisecond)

	if got := r.fired(); len(got) != 1 || got[0] != "fast" {
		t.Fatalf("expected only fast to fire, got %v", got)
	}
}

func TestScheduler_CancelBeforeFire(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	h, err := s.Schedule("click", button.KeyLCD1, 100*time.Millisecond, r.action("click"))
	if err != nil {
		t.Fatal(err)
	}
	if !h.Cancel() {
		t.Fatal("expected first cancel to remove the task")
	}
	if h.Cancel() {
		t.Fatal("expected second cancel to be a no-op")
	}

	time.Sleep(250 * time.Millisecond)

	if got := r.fired(); len(got) != 0 {
		t.Fatalf("expected no firing after cancel, got %v", got)
	}
}

func TestScheduler_CancelAfterFireIsNoop(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	h, err := s.Schedule("click", button.KeyLCD1, 20*time.Millisecond, r.action("click"))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if h.Cancel() {
		t.Fatal("expected cancel after firing to report false")
	}
	if h.Cancel() {
		t.Fatal("expected repeated cancel to report false")
	}
	if got := r.fired(); len(got) != 1 {
		t.Fatalf("expected exactly one firing, got %v", got)
	}
}

func TestScheduler_NilHandleCancel(t *testing.T) {
	var h *CancelHandle
	if h.Cancel() {
		t.Fatal("nil handle must not cancel anything")
	}
	if h.Name() != "" {
		t.Fatal("nil handle has no name")
	}
}

func TestScheduler_RescheduleRepeats(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	var repeats []int
	h, err := s.Schedule("repeat", button.KeyMenu, 30*time.Millisecond, func(tc *TaskContext) {
		mu.Lock()
		repeats = append(repeats, tc.Repeat())
		mu.Unlock()
		if err := tc.Reschedule(40 * time.Millisecond); err != nil {
			t.Errorf("reschedule: %v", err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	// fires at ~30, 70, 110, 150ms
	time.Sleep(170 * time.Millisecond)
	if !h.Cancel() {
		t.Fatal("expected handle to follow the rescheduled task")
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(repeats) < 3 || len(repeats) > 4 {
		t.Fatalf("expected 3 or 4 firings, got %v", repeats)
	}
	for i, r := range repeats {
		if r != i {
			t.Fatalf("expected repeat counts 0,1,2..., got %v", repeats)
		}
	}
}

func TestScheduler_RescheduleOutsideExecution(t *testing.T) {
	s := newTestScheduler(t)

	captured := make(chan *TaskContext, 1)
	if _, err := s.Schedule("leak", button.KeyMenu, 20*time.Millisecond, func(tc *TaskContext) {
		captured <- tc
	}); err != nil {
		t.Fatal(err)
	}

	var tc *TaskContext
	select {
	case tc = <-captured:
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
	// the action has returned (or is about to); give it a moment
	time.Sleep(20 * time.Millisecond)

	if err := tc.Reschedule(50 * time.Millisecond); !errors.Is(err, ErrNotExecuting) {
		t.Fatalf("expected ErrNotExecuting, got %v", err)
	}
	var nilCtx *TaskContext
	if err := nilCtx.Reschedule(50 * time.Millisecond); !errors.Is(err, ErrNotExecuting) {
		t.Fatalf("expected ErrNotExecuting for nil context, got %v", err)
	}
	if s.Pending() != 0 {
		t.Fatalf("rejected reschedule must not queue anything, got %d", s.Pending())
	}
}

func TestScheduler_RescheduleValidation(t *testing.T) {
	s := newTestScheduler(t)

	errs := make(chan error, 2)
	if _, err := s.Schedule("bad", button.KeyMenu, 20*time.Millisecond, func(tc *TaskContext) {
		errs <- tc.Reschedule(0)
		errs <- tc.Reschedule(time.Millisecond)
	}); err != nil {
		t.Fatal(err)
	}

	for _, want := range []error{ErrNonPositiveDelay, ErrDeadlineTooSoon} {
		select {
		case err := <-errs:
			if !errors.Is(err, want) {
				t.Errorf("expected %v, got %v", want, err)
			}
		case <-time.After(time.Second):
			t.Fatal("task never fired")
		}
	}
}

func TestScheduler_CancelWhileRunningStopsReschedule(t *testing.T) {
	s := newTestScheduler(t)

	running := make(chan struct{})
	proceed := make(chan struct{})
	result := make(chan error, 1)
	var fires int
	var mu sync.Mutex

	h, err := s.Schedule("held", button.KeyMenu, 20*time.Millisecond, func(tc *TaskContext) {
		mu.Lock()
		fires++
		mu.Unlock()
		if tc.Repeat() == 0 {
			close(running)
			<-proceed
			result <- tc.Reschedule(20 * time.Millisecond)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	<-running
	if h.Cancel() {
		t.Error("a running task is not queued, cancel must report false")
	}
	close(proceed)

	if err := <-result; !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if fires != 1 {
		t.Fatalf("expected a single firing, got %d", fires)
	}
}

func TestScheduler_PanicDoesNotKillWorker(t *testing.T) {
	var mu sync.Mutex
	var panics []string
	s := New(Options{PanicHandler: func(name string, v any) {
		mu.Lock()
		panics = append(panics, name)
		mu.Unlock()
	}})
	defer s.Close()
	r := &recorder{}

	if _, err := s.Schedule("boom", button.KeyLCD1, 20*time.Millisecond, func(*TaskContext) {
		panic("listener failed")
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Schedule("after", button.KeyLCD1, 60*time.Millisecond, r.action("after")); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(panics) != 1 || panics[0] != "boom" {
		t.Fatalf("expected one panic from boom, got %v", panics)
	}
	if got := r.fired(); len(got) != 1 {
		t.Fatalf("expected the worker to keep running, got %v", got)
	}
}

func TestScheduler_DefaultPanicHandlerLogs(t *testing.T) {
	mock := logger.NewMockLogger()
	s := New(Options{Logger: mock})
	defer s.Close()

	if _, err := s.Schedule("boom", button.KeyLCD1, 20*time.Millisecond, func(*TaskContext) {
		panic("listener failed")
	}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	errs := mock.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected one logged error, got %v", errs)
	}
}

func TestScheduler_TaskContextAccessors(t *testing.T) {
	s := newTestScheduler(t)

	type seen struct {
		name   string
		button button.Button
		late   bool
	}
	got := make(chan seen, 1)
	if _, err := s.Schedule("inspect", button.KeyBack, 20*time.Millisecond, func(tc *TaskContext) {
		got <- seen{tc.Name(), tc.Button(), !time.Now().Before(tc.Deadline())}
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case v := <-got:
		if v.name != "inspect" || v.button != button.KeyBack {
			t.Errorf("unexpected context %+v", v)
		}
		if !v.late {
			t.Error("task must not fire before its deadline")
		}
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
}

func TestScheduler_Close(t *testing.T) {
	s := New(Options{})
	r := &recorder{}

	if _, err := s.Schedule("dropped", button.KeyLCD1, 50*time.Millisecond, r.action("dropped")); err != nil {
		t.Fatal(err)
	}
	s.Close()
	s.Close()

	if _, err := s.Schedule("late", button.KeyLCD1, 50*time.Millisecond, r.action("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := r.fired(); len(got) != 0 {
		t.Fatalf("expected nothing to fire after close, got %v", got)
	}
}

func TestScheduler_ConcurrentScheduleAndCancel(t *testing.T) {
	s := newTestScheduler(t)
	r := &recorder{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := s.Schedule("task", button.KeyLCD1, 30*time.Millisecond, r.action("task"))
			if err != nil {
				t.Error(err)
				return
			}
			if i%2 == 0 {
				h.Cancel()
			}
		}(i)
	}
	wg.Wait()
	time.Sleep(200 * time.Millisecond)

	if got := len(r.fired()); got != 10 {
		t.Fatalf("expected 10 surviving tasks to fire, got %d", got)
	}
}
