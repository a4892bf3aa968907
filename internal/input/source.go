// Package input feeds button edges into a gesture classifier from the
// simulator line protocol, timed replay scripts or GPIO lines.
package input

import (
	"context"
	"errors"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

var ErrSyntax = errors.New("syntax error")

// Sink receives edges. *gesture.Classifier implements it.
type Sink interface {
	HandleButtonDown(b button.Button) error
	HandleButtonUp(b button.Button) error
}

// Source produces edges until its input ends or ctx is done.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// deliver hands ev to sink. Sink errors are logged, not returned: one bad
// edge must not stop the source.
func deliver(sink Sink, ev button.KeyEvent, log logger.Logger) {
	var err error
	if ev.Pressed() {
		err = sink.HandleButtonDown(ev.Key())
	} else {
		err = sink.HandleButtonUp(ev.Key())
	}
	if err != nil {
		log.Error("failed to handle %s: %v", ev, err)
	}
}

// parseEdge maps a command word and key token to an event.
func parseEdge(cmd, key string) (button.KeyEvent, error) {
	k, err := button.ParseKey(key)
	if err != nil {
		return 0, err
	}
	switch cmd {
	case "keypress", "press", "down":
		return button.Press(k), nil
	case "keyrelease", "release", "up":
		return button.Release(k), nil
	default:
		return 0, errors.New("unknown command " + cmd)
	}
}
