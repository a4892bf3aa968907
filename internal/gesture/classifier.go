// Package gesture turns button press and release edges into gestures
// (click, long press, continued long press) and noise events (too short,
// ambiguous, too long), using deferred tasks on a scheduler.Scheduler.
package gesture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/scheduler"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

var ErrNilButton = errors.New("gesture: button must not be nil")

// Options configure a Classifier.
type Options struct {
	// Intervals defaults to DefaultIntervals when zero.
	Intervals Intervals
	// Scheduler runs deferred classifications. When nil the Classifier
	// creates its own and closes it in Close. That scheduler always runs on
	// the wall clock, whatever Clock is.
	Scheduler *scheduler.Scheduler
	Logger    logger.Logger
	// Clock measures press ages. Defaults to time.Now.
	Clock func() time.Time
}

// Classifier is safe for concurrent use by any number of producers.
//
// Edge handlers are serialized and notify listeners before returning, so
// listeners must not call HandleButtonDown or HandleButtonUp themselves.
// ButtonsDown and Intervals may be called from any listener.
type Classifier struct {
	// edge serializes the edge handlers, immediate dispatch included.
	edge sync.Mutex

	// mu guards the state below. It is never held while listeners run.
	mu     sync.RWMutex
	iv     Intervals
	down   *downSet
	lastUp map[button.Button]Trigger

	sched     *scheduler.Scheduler
	ownsSched bool
	clock     func() time.Time
	log       logger.Logger

	buttonListeners registry[ButtonListener]
	noiseListeners  registry[NoiseListener]
}

// NewClassifier creates a Classifier.
func NewClassifier(opts Options) (*Classifier, error) {
	iv := opts.Intervals
	if iv == (Intervals{}) {
		iv = DefaultIntervals()
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		iv:     iv,
		down:   newDownSet(),
		lastUp: make(map[button.Button]Trigger),
		sched:  opts.Scheduler,
		clock:  opts.Clock,
		log:    logger.OrNop(opts.Logger),
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if c.sched == nil {
		c.sched = scheduler.New(scheduler.Options{Logger: c.log})
		c.ownsSched = true
	}
	return c, nil
}

// Close stops the scheduler if the Classifier created it. Pending deferred
// gestures are dropped.
func (c *Classifier) Close() {
	if c.ownsSched {
		c.sched.Close()
	}
}

// HandleButtonDown processes the press edge of b.
func (c *Classifier) HandleButtonDown(b button.Button) error {
	if b == nil {
		return ErrNilButton
	}
	now := c.clock()

	c.edge.Lock()
	defer c.edge.Unlock()

	if err := c.press(b, now); err != nil {
		return err
	}
	c.buttonListeners.each(func(l ButtonListener) { l.HandleButtonDown(b) })
	return nil
}

// press records b as held and schedules its continued long press.
func (c *Classifier) press(b button.Button, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	iv := c.iv

	// a re-press inside the event delay suppresses the pending click or
	// long press of the previous release
	if last, ok := c.lastUp[b]; ok {
		if now.Sub(last.EventTime) < iv.delayFor(b) && last.Cancel() {
			c.log.Info("re-press of %s suppressed pending gesture", b)
		}
		delete(c.lastUp, b)
	}

	if old, ok := c.down.get(b); ok {
		c.log.Warning("press of %s while already down, restarting", b)
		old.Cancel()
	}

	repeat := iv.LongPressRepeat
	h, err := c.sched.Schedule("continued long press "+b.String(), b, iv.LongPressMax,
		func(tc *scheduler.TaskContext) {
			c.continuedLongPress(tc, b, now, repeat)
		})
	if err != nil {
		c.down.remove(b)
		return fmt.Errorf("schedule continued long press for %s: %w", b, err)
	}
	c.down.put(Trigger{EventTime: now, Button: b, cancel: h})
	return nil
}

// HandleButtonUp processes the release edge of b. A release of a button that
// is not down is attributed to the button held longest, if any.
func (c *Classifier) HandleButtonUp(b button.Button) error {
	if b == nil {
		return ErrNilButton
	}
	now := c.clock()

	c.edge.Lock()
	defer c.edge.Unlock()

	c.buttonListeners.each(func(l ButtonListener) { l.HandleButtonUp(b) })

	held, kind, age, err := c.release(b, now)
	if err != nil || held == nil {
		return err
	}
	switch kind {
	case KindTooShort:
		c.noiseListeners.each(func(l NoiseListener) { l.HandleTooShort(held, age) })
	case KindAmbiguous:
		c.noiseListeners.each(func(l NoiseListener) { l.HandleAmbiguous(held, age) })
	case KindTooLong:
		c.noiseListeners.each(func(l NoiseListener) { l.HandleTooLong(held, age) })
	}
	return nil
}

// release removes the trigger matching b, classifies the hold and schedules
// the deferred kinds. held is nil when no button was down.
func (c *Classifier) release(b button.Button, now time.Time) (held button.Button, kind Kind, age time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.down.get(b)
	if !ok {
		if t, ok = c.down.oldest(); !ok {
			return nil, kind, 0, nil
		}
		c.log.Warning("release of %s without a press, attributing it to %s", b, t.Button)
	}
	t.Cancel()
	c.down.remove(t.Button)

	held = t.Button
	age = now.Sub(t.EventTime)
	kind = c.iv.Classify(age)
	if kind.Deferred() {
		err = c.deferLocked(held, kind, now)
	}
	return held, kind, age, err
}

// deferLocked schedules the click or long press of held after its event
// delay and remembers it so a re-press can cancel it. Caller holds c.mu.
func (c *Classifier) deferLocked(held button.Button, kind Kind, released time.Time) error {
	var h *scheduler.CancelHandle
	h, err := c.sched.Schedule(kind.String()+" "+held.String(), held, c.iv.delayFor(held),
		func(*scheduler.TaskContext) {
			c.mu.Lock()
			if cur, ok := c.lastUp[held]; ok && cur.cancel == h {
				delete(c.lastUp, held)
			}
			c.mu.Unlock()

			if kind == KindClick {
				c.buttonListeners.each(func(l ButtonListener) { l.HandleClick(held) })
			} else {
				c.buttonListeners.each(func(l ButtonListener) { l.HandleLongPress(held) })
			}
		})
	if err != nil {
		return fmt.Errorf("schedule %s for %s: %w", kind, held, err)
	}
	c.lastUp[held] = Trigger{EventTime: released, Button: held, cancel: h}
	return nil
}

// continuedLongPress runs on the scheduler while b stays down past the long
// press maximum. The release cancels it.
func (c *Classifier) continuedLongPress(tc *scheduler.TaskContext, b button.Button, pressed time.Time, every time.Duration) {
	repeat := tc.Repeat() + 1
	elapsed := c.clock().Sub(pressed)

	err := tc.Reschedule(every)
	if err != nil && !errors.Is(err, scheduler.ErrCancelled) && !errors.Is(err, scheduler.ErrClosed) {
		c.log.Error("reschedule continued long press for %s: %v", b, err)
	}
	c.buttonListeners.each(func(l ButtonListener) { l.HandleContinuedLongPress(b, elapsed, repeat) })
}

// ButtonsDown returns the buttons currently held, in press order.
func (c *Classifier) ButtonsDown() []button.Button {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.down.buttons()
}

// Intervals returns the thresholds in use.
func (c *Classifier) Intervals() Intervals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iv
}

// SetIntervals replaces the thresholds. Presses already in progress keep
// their continued long press schedule; their release is classified with
// the new values.
func (c *Classifier) SetIntervals(iv Intervals) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.iv = iv
	c.mu.Unlock()
	c.log.Info("intervals updated: click %v-%v, long press %v-%v, event delay %v",
		iv.ClickMin, iv.ClickMax, iv.LongPressMin, iv.LongPressMax, iv.EventDelay)
	return nil
}

// AddButtonListener registers l. Listeners are called in registration order.
func (c *Classifier) AddButtonListener(l ButtonListener) {
	if l != nil {
		c.buttonListeners.add(l)
	}
}

// RemoveButtonListener unregisters l and reports whether it was registered.
func (c *Classifier) RemoveButtonListener(l ButtonListener) bool {
	return c.buttonListeners.remove(l)
}

// AddNoiseListener registers l. Listeners are called in registration order.
func (c *Classifier) AddNoiseListener(l NoiseListener) {
	if l != nil {
		c.noiseListeners.add(l)
	}
}

// RemoveNoiseListener unregisters l and reports whether it was registered.
func (c *Classifier) RemoveNoiseListener(l NoiseListener) bool {
	return c.noiseListeners.remove(l)
}
