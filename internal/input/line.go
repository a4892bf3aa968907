package input

import (
	"bufio"
	"context"
	"io"

	"github.com/google/shlex"

	"github.com/buttonpad/buttonpad/pkg/logger"
)

// LineSource reads the simulator protocol, one edge per line:
//
//	keypress 9
//	keyrelease 9
//
// Keys may be given by code or by name ("keypress menu"). Blank lines and
// '#' comments are ignored; malformed lines are logged and skipped.
type LineSource struct {
	r   io.Reader
	log logger.Logger
}

// NewLineSource creates a LineSource reading from r.
func NewLineSource(r io.Reader, l logger.Logger) *LineSource {
	return &LineSource{r: r, log: logger.OrNop(l)}
}

// Run returns nil at end of input and ctx.Err() when ctx is done first.
func (s *LineSource) Run(ctx context.Context, sink Sink) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return ctx.Err()
				}
			}
			s.handleLine(line, sink)
		}
	}
}

func (s *LineSource) handleLine(line string, sink Sink) {
	fields, err := shlex.Split(line)
	if err != nil {
		s.log.Warning("ignoring input line %q: %v", line, err)
		return
	}
	if len(fields) == 0 {
		return
	}
	if len(fields) != 2 {
		s.log.Warning("ignoring input line %q: expected <command> <key>", line)
		return
	}
	ev, err := parseEdge(fields[0], fields[1])
	if err != nil {
		s.log.Warning("ignoring input line %q: %v", line, err)
		return
	}
	deliver(sink, ev, s.log)
}
