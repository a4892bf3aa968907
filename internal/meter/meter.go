// Package meter draws a terminal progress bar for every held button, so the
// operator can see which gesture a release would produce.
package meter

import (
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/gesture"
)

// RefreshRate is how often held bars advance.
const RefreshRate = 50 * time.Millisecond

type hold struct {
	bar     *mpb.Bar
	pressed time.Time
}

// Meter is a gesture.ButtonListener. A bar's total is the long press maximum,
// so a full bar means the release would be too long.
type Meter struct {
	gesture.BaseListener

	p     *mpb.Progress
	iv    gesture.Intervals
	clock func() time.Time

	mu    sync.Mutex
	holds map[button.Button]*hold

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// New creates a Meter drawing on p and starts its ticker.
func New(p *mpb.Progress, iv gesture.Intervals) *Meter {
	m := &Meter{
		p:      p,
		iv:     iv,
		clock:  time.Now,
		holds:  make(map[button.Button]*hold),
		ticker: time.NewTicker(RefreshRate),
		done:   make(chan struct{}),
	}
	go m.worker()
	return m
}

func (m *Meter) worker() {
	for {
		select {
		case <-m.ticker.C:
			m.advance()
		case <-m.done:
			return
		}
	}
}

func (m *Meter) advance() {
	now := m.clock()
	total := m.iv.LongPressMax.Milliseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holds {
		cur := now.Sub(h.pressed).Milliseconds()
		if cur > total {
			cur = total
		}
		h.bar.SetCurrent(cur)
	}
}

// phase names the gesture a release after held would produce.
func phase(iv gesture.Intervals, held time.Duration) string {
	switch k := iv.Classify(held); k {
	case gesture.KindTooShort:
		return "hold"
	default:
		return k.String()
	}
}

func (m *Meter) HandleButtonDown(b button.Button) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.holds[b]; ok {
		old.bar.Abort(true)
	}

	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	name := b.String()
	bar := m.p.New(m.iv.LongPressMax.Milliseconds(),
		barStyle,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.Any(func(s decor.Statistics) string {
				return phase(m.iv, time.Duration(s.Current)*time.Millisecond)
			}, decor.WC{W: 11, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 4}), "held"),
		),
	)
	m.holds[b] = &hold{bar: bar, pressed: m.clock()}
}

// HandleButtonUp freezes a bar that reached its total and aborts any other,
// leaving it on screen.
func (m *Meter) HandleButtonUp(b button.Button) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[b]
	if !ok {
		return
	}
	delete(m.holds, b)
	if h.bar.Completed() {
		return
	}
	h.bar.SetCurrent(m.clock().Sub(h.pressed).Milliseconds())
	h.bar.Abort(false)
}

// Held returns the number of bars currently advancing.
func (m *Meter) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.holds)
}

// Close stops the ticker and drops every open bar. The caller still owns p.
func (m *Meter) Close() {
	m.once.Do(func() {
		m.ticker.Stop()
		close(m.done)
		m.mu.Lock()
		for b, h := range m.holds {
			h.bar.Abort(true)
			delete(m.holds, b)
		}
		m.mu.Unlock()
	})
}

var _ gesture.ButtonListener = (*Meter)(nil)
