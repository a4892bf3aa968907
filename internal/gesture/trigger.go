package gesture

import (
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/scheduler"
)

// Trigger records a press of a button that is still down, or the release of
// a button whose click or long press is still pending. It is replaced on the
// next edge and never modified.
type Trigger struct {
	EventTime time.Time
	Button    button.Button
	cancel    *scheduler.CancelHandle
}

// Cancel cancels the task attached to the trigger, if any, and reports
// whether a queued task was removed.
func (t Trigger) Cancel() bool {
	return t.cancel.Cancel()
}

// downSet keeps triggers of held buttons in press order so the oldest one
// can be found on an unmatched release.
type downSet struct {
	order    []button.Button
	triggers map[button.Button]Trigger
}

func newDownSet() *downSet {
	return &downSet{triggers: make(map[button.Button]Trigger)}
}

func (d *downSet) get(b button.Button) (Trigger, bool) {
	t, ok := d.triggers[b]
	return t, ok
}

// put stores t, keeping b's original position if it was already held.
func (d *downSet) put(t Trigger) {
	if _, ok := d.triggers[t.Button]; !ok {
		d.order = append(d.order, t.Button)
	}
	d.triggers[t.Button] = t
}

func (d *downSet) remove(b button.Button) {
	if _, ok := d.triggers[b]; !ok {
		return
	}
	delete(d.triggers, b)
	for i, o := range d.order {
		if o == b {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// oldest returns the trigger of the button held longest.
func (d *downSet) oldest() (Trigger, bool) {
	if len(d.order) == 0 {
		return Trigger{}, false
	}
	return d.triggers[d.order[0]], true
}

func (d *downSet) buttons() []button.Button {
	return append([]button.Button(nil), d.order...)
}
