package gesture

import (
	"sync"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// ButtonListener receives edges and gestures. Calls arrive on the goroutine
// that produced the event: the caller of HandleButtonDown/HandleButtonUp for
// edges, the scheduler worker for clicks, long presses and continued long
// presses. Listeners must not call back into the Classifier's edge handlers.
type ButtonListener interface {
	HandleButtonDown(b button.Button)
	HandleButtonUp(b button.Button)
	HandleClick(b button.Button)
	HandleLongPress(b button.Button)
	// HandleContinuedLongPress is called while b stays held past the long
	// press maximum. repeat starts at 1.
	HandleContinuedLongPress(b button.Button, elapsed time.Duration, repeat int)
}

// NoiseListener receives releases that did not produce a gesture. age is how
// long the button was held.
type NoiseListener interface {
	HandleTooShort(b button.Button, age time.Duration)
	HandleAmbiguous(b button.Button, age time.Duration)
	HandleTooLong(b button.Button, age time.Duration)
}

// BaseListener implements ButtonListener and NoiseListener with no-ops, for
// embedding in listeners that care about a few events only.
type BaseListener struct{}

func (BaseListener) HandleButtonDown(button.Button) {}
func (BaseListener) HandleButtonUp(button.Button) {}
func (BaseListener) HandleClick(button.Button) {}
func (BaseListener) HandleLongPress(button.Button) {}
func (BaseListener) HandleContinuedLongPress(button.Button, time.Duration, int) {}
func (BaseListener) HandleTooShort(button.Button, time.Duration) {}
func (BaseListener) HandleAmbiguous(button.Button, time.Duration) {}
func (BaseListener) HandleTooLong(button.Button, time.Duration) {}

// registry is an ordered listener list. Dispatch iterates a snapshot so a
// listener may add or remove listeners while being called.
type registry[L comparable] struct {
	mu        sync.Mutex
	listeners []L
}

func (r *registry[L]) add(l L) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// remove drops the first registration of l and reports whether it was found.
func (r *registry[L]) remove(l L) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.listeners {
		if o == l {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry[L]) snapshot() []L {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listeners
}

func (r *registry[L]) each(fn func(L)) {
	for _, l := range r.snapshot() {
		fn(l)
	}
}

// LogListener logs every edge, gesture and noise event.
type LogListener struct {
	log logger.Logger
}

// NewLogListener creates a LogListener writing to l.
func NewLogListener(l logger.Logger) *LogListener {
	return &LogListener{log: logger.OrNop(l)}
}

func (l *LogListener) HandleButtonDown(b button.Button) {
	l.log.Info("down %s", b)
}

func (l *LogListener) HandleButtonUp(b button.Button) {
	l.log.Info("up %s", b)
}

func (l *LogListener) HandleClick(b button.Button) {
	l.log.Info("click %s", b)
}

func (l *LogListener) HandleLongPress(b button.Button) {
	l.log.Info("long press %s", b)
}

func (l *LogListener) HandleContinuedLongPress(b button.Button, elapsed time.Duration, repeat int) {
	l.log.Info("continued long press %s: held %v, repeat %d", b, elapsed.Round(time.Millisecond), repeat)
}

func (l *LogListener) HandleTooShort(b button.Button, age time.Duration) {
	l.log.Info("too short %s: %v", b, age.Round(time.Millisecond))
}

func (l *LogListener) HandleAmbiguous(b button.Button, age time.Duration) {
	l.log.Info("ambiguous %s: %v", b, age.Round(time.Millisecond))
}

func (l *LogListener) HandleTooLong(b button.Button, age time.Duration) {
	l.log.Info("too long %s: %v", b, age.Round(time.Millisecond))
}

var (
	_ ButtonListener = BaseListener{}
	_ NoiseListener  = BaseListener{}
	_ ButtonListener = (*LogListener)(nil)
	_ NoiseListener  = (*LogListener)(nil)
)
