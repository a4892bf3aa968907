package gesture

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/scheduler"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// testIntervals are short enough to exercise every classification in real
// time.
func testIntervals() Intervals {
	return Intervals{
		EventDelay:      200 * time.Millisecond,
		HardButtonDelay: 400 * time.Millisecond,
		ClickMin:        200 * time.Millisecond,
		ClickMax:        300 * time.Millisecond,
		LongPressMin:    350 * time.Millisecond,
		LongPressMax:    500 * time.Millisecond,
		LongPressRepeat: 250 * time.Millisecond,
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type event struct {
	kind   string
	button button.Button
	repeat int
}

// recordingListener records every callback it receives.
type recordingListener struct {
	mu     sync.Mutex
	events []event
}

func (r *recordingListener) record(kind string, b button.Button, repeat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind: kind, button: b, repeat: repeat})
}

func (r *recordingListener) HandleButtonDown(b button.Button) { r.record("down", b, 0) }
func (r *recordingListener) HandleButtonUp(b button.Button) { r.record("up", b, 0) }
func (r *recordingListener) HandleClick(b button.Button) { r.record("click", b, 0) }
func (r *recordingListener) HandleLongPress(b button.Button) { r.record("longPress", b, 0) }

func (r *recordingListener) HandleContinuedLongPress(b button.Button, _ time.Duration, repeat int) {
	r.record("continuedLongPress", b, repeat)
}

func (r *recordingListener) HandleTooShort(b button.Button, _ time.Duration) { r.record("tooShort", b, 0) }
func (r *recordingListener) HandleAmbiguous(b button.Button, _ time.Duration) { r.record("ambiguous", b, 0) }
func (r *recordingListener) HandleTooLong(b button.Button, _ time.Duration) { r.record("tooLong", b, 0) }

func (r *recordingListener) count(kind string, b button.Button) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind && e.button == b {
			n++
		}
	}
	return n
}

func (r *recordingListener) repeats(b button.Button) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, e := range r.events {
		if e.kind == "continuedLongPress" && e.button == b {
			out = append(out, e.repeat)
		}
	}
	return out
}

func (r *recordingListener) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = fmt.Sprintf("%s %s", e.kind, e.button)
	}
	return out
}

// expectCounts checks the number of each event kind recorded for b. Kinds
// not listed must not have been recorded.
func expectCounts(t *testing.T, r *recordingListener, b button.Button, want map[string]int) {
	t.Helper()
	for _, kind := range []string{"down", "up", "click", "longPress", "continuedLongPress", "tooShort", "ambiguous", "tooLong"} {
		if got := r.count(kind, b); got != want[kind] {
			t.Errorf("%s %s: expected %d, got %d (events %v)", kind, b, want[kind], got, r.kinds())
		}
	}
}

type classifierOpts struct {
	clock func() time.Time
	log   logger.Logger
	sched *scheduler.Scheduler
}

// newTestClassifier wires a Classifier with testIntervals and a recording
// listener on both registries. The scheduler always runs on the wall clock.
func newTestClassifier(t *testing.T, o classifierOpts) (*Classifier, *recordingListener) {
	t.Helper()
	sched := o.sched
	if sched == nil {
		sched = scheduler.New(scheduler.Options{})
		t.Cleanup(sched.Close)
	}
	c, err := NewClassifier(Options{
		Intervals: testIntervals(),
		Scheduler: sched,
		Logger:    o.log,
		Clock:     o.clock,
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	r := &recordingListener{}
	c.AddButtonListener(r)
	c.AddNoiseListener(r)
	return c, r
}

func mustDown(t *testing.T, c *Classifier, b button.Button) {
	t.Helper()
	if err := c.HandleButtonDown(b); err != nil {
		t.Fatalf("down %s: %v", b, err)
	}
}

func mustUp(t *testing.T, c *Classifier, b button.Button) {
	t.Helper()
	if err := c.HandleButtonUp(b); err != nil {
		t.Fatalf("up %s: %v", b, err)
	}
}

func sameButtons(got []button.Button, want ...button.Button) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
