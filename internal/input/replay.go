package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/afero"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// Step is one edge of a replay script, Offset after the script starts.
type Step struct {
	Offset time.Duration
	Event  button.KeyEvent
}

// ReplaySource plays a timed script of edges:
//
//	# offset  edge  key
//	0s        down  menu
//	250ms     up    menu
//
// Offsets are Go durations measured from the start of Run and must not
// decrease.
type ReplaySource struct {
	steps []Step
	log   logger.Logger
}

// LoadReplay reads and parses the script at path.
func LoadReplay(fs afero.Fs, path string, l logger.Logger) (*ReplaySource, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay script: %w", err)
	}
	defer f.Close()

	steps, err := ParseReplay(path, f)
	if err != nil {
		return nil, err
	}
	return NewReplaySource(steps, l), nil
}

// NewReplaySource creates a ReplaySource for already parsed steps.
func NewReplaySource(steps []Step, l logger.Logger) *ReplaySource {
	return &ReplaySource{steps: steps, log: logger.OrNop(l)}
}

// ParseReplay parses a replay script. name prefixes error positions.
func ParseReplay(name string, r io.Reader) ([]Step, error) {
	var steps []Step
	var last time.Duration
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		fields, err := shlex.Split(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %v", name, n, ErrSyntax, err)
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: %w: expected <offset> <down|up> <key>", name, n, ErrSyntax)
		}
		offset, err := time.ParseDuration(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %v", name, n, ErrSyntax, err)
		}
		if offset < last {
			return nil, fmt.Errorf("%s:%d: %w: offset %v is before %v", name, n, ErrSyntax, offset, last)
		}
		ev, err := parseEdge(fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w: %v", name, n, ErrSyntax, err)
		}
		last = offset
		steps = append(steps, Step{Offset: offset, Event: ev})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return steps, nil
}

// Steps returns the parsed script.
func (s *ReplaySource) Steps() []Step {
	return s.steps
}

// Duration is the offset of the last step.
func (s *ReplaySource) Duration() time.Duration {
	if len(s.steps) == 0 {
		return 0
	}
	return s.steps[len(s.steps)-1].Offset
}

// Run delivers every step at its offset and returns nil after the last one,
// or ctx.Err() if ctx is done first.
func (s *ReplaySource) Run(ctx context.Context, sink Sink) error {
	start := time.Now()
	for _, step := range s.steps {
		if wait := time.Until(start.Add(step.Offset)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		deliver(sink, step.Event, s.log)
	}
	return nil
}
