//go:build linux

package input

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/buttonpad/buttonpad/internal/button"
)

// Run requests every configured line and forwards edges to sink until ctx
// is done. Edge handlers run on the gpiocdev event goroutine.
func (s *GPIOSource) Run(ctx context.Context, sink Sink) error {
	keys := make(map[int]button.Key, len(s.Lines))
	for k, offset := range s.Lines {
		keys[offset] = k
	}

	handler := func(evt gpiocdev.LineEvent) {
		k, ok := keys[evt.Offset]
		if !ok {
			return
		}
		switch evt.Type {
		case gpiocdev.LineEventFallingEdge:
			deliver(sink, button.Press(k), s.log)
		case gpiocdev.LineEventRisingEdge:
			deliver(sink, button.Release(k), s.log)
		}
	}

	var lines []*gpiocdev.Line
	defer func() {
		for _, l := range lines {
			l.Close()
		}
	}()
	for k, offset := range s.Lines {
		l, err := gpiocdev.RequestLine(s.Chip, offset,
			gpiocdev.AsInput,
			gpiocdev.WithConsumer("buttonpad"),
			gpiocdev.WithPullUp,
			gpiocdev.WithBothEdges,
			gpiocdev.WithDebounce(s.Debounce),
			gpiocdev.WithEventHandler(handler))
		if err != nil {
			return fmt.Errorf("request %s line %d for %s: %w", s.Chip, offset, k, err)
		}
		lines = append(lines, l)
		s.log.Info("watching %s line %d as %s", s.Chip, offset, k)
	}

	<-ctx.Done()
	return ctx.Err()
}
