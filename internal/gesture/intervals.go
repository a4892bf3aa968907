package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/scheduler"
)

var ErrIntervals = errors.New("invalid intervals")

// Intervals holds the thresholds used to classify how long a button was
// held. Press ages are matched against half-open ranges:
//
//	[0, ClickMin)                 too short
//	[ClickMin, ClickMax)          click
//	[ClickMax, LongPressMin)      ambiguous
//	[LongPressMin, LongPressMax)  long press
//	[LongPressMax, ...)           too long
//
// Holding past LongPressMax also starts the continued long press, repeated
// every LongPressRepeat until release.
type Intervals struct {
	// EventDelay postpones click and long press notifications so that a
	// quick re-press can suppress them.
	EventDelay time.Duration
	// HardButtonDelay replaces EventDelay for hard (non-LCD) buttons.
	HardButtonDelay time.Duration
	ClickMin        time.Duration
	ClickMax        time.Duration
	LongPressMin    time.Duration
	LongPressMax    time.Duration
	LongPressRepeat time.Duration
}

// DefaultIntervals returns the thresholds shipped with the console.
func DefaultIntervals() Intervals {
	return Intervals{
		EventDelay:      200 * time.Millisecond,
		HardButtonDelay: 500 * time.Millisecond,
		ClickMin:        200 * time.Millisecond,
		ClickMax:        1500 * time.Millisecond,
		LongPressMin:    2000 * time.Millisecond,
		LongPressMax:    10000 * time.Millisecond,
		LongPressRepeat: 1000 * time.Millisecond,
	}
}

// Validate checks that the classification bounds are ascending and that
// every delay handed to the scheduler is at least scheduler.MinLead.
func (iv Intervals) Validate() error {
	if iv.ClickMin < 0 {
		return fmt.Errorf("%w: click min %v is negative", ErrIntervals, iv.ClickMin)
	}
	bounds := []struct {
		name string
		d    time.Duration
	}{
		{"click min", iv.ClickMin},
		{"click max", iv.ClickMax},
		{"long press min", iv.LongPressMin},
		{"long press max", iv.LongPressMax},
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].d < bounds[i-1].d {
			return fmt.Errorf("%w: %s %v is below %s %v", ErrIntervals,
				bounds[i].name, bounds[i].d, bounds[i-1].name, bounds[i-1].d)
		}
	}
	delays := []struct {
		name string
		d    time.Duration
	}{
		{"event delay", iv.EventDelay},
		{"hard button delay", iv.HardButtonDelay},
		{"long press max", iv.LongPressMax},
		{"long press repeat", iv.LongPressRepeat},
	}
	for _, d := range delays {
		if d.d < scheduler.MinLead {
			return fmt.Errorf("%w: %s %v is below %v", ErrIntervals, d.name, d.d, scheduler.MinLead)
		}
	}
	return nil
}

// Kind names the outcome of classifying a press age.
type Kind uint8

const (
	KindTooShort Kind = iota
	KindClick
	KindAmbiguous
	KindLongPress
	KindTooLong
)

func (k Kind) String() string {
	switch k {
	case KindTooShort:
		return "tooShort"
	case KindClick:
		return "click"
	case KindAmbiguous:
		return "ambiguous"
	case KindLongPress:
		return "longPress"
	case KindTooLong:
		return "tooLong"
	default:
		return "INVALID"
	}
}

// Deferred reports whether the kind is delivered after the event delay
// rather than on release.
func (k Kind) Deferred() bool {
	return k == KindClick || k == KindLongPress
}

// Classify maps how long a button was held to a Kind.
func (iv Intervals) Classify(age time.Duration) Kind {
	switch {
	case age < iv.ClickMin:
		return KindTooShort
	case age < iv.ClickMax:
		return KindClick
	case age < iv.LongPressMin:
		return KindAmbiguous
	case age < iv.LongPressMax:
		return KindLongPress
	default:
		return KindTooLong
	}
}

// delayFor returns the deferred classification window for b.
func (iv Intervals) delayFor(b button.Button) time.Duration {
	if h, ok := b.(interface{ Hard() bool }); ok && h.Hard() {
		return iv.HardButtonDelay
	}
	return iv.EventDelay
}
