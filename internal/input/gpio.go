package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

var ErrGPIOUnsupported = errors.New("gpio input is only supported on linux")

const (
	DefaultChip     = "gpiochip0"
	DefaultDebounce = 10 * time.Millisecond
)

// GPIOSource reads one active-low GPIO line per key: a falling edge is a
// press, a rising edge a release.
type GPIOSource struct {
	Chip     string
	Lines    map[button.Key]int
	Debounce time.Duration
	log      logger.Logger
}

// NewGPIOSource creates a GPIOSource. An empty chip selects DefaultChip, a
// zero debounce DefaultDebounce.
func NewGPIOSource(chip string, lines map[button.Key]int, debounce time.Duration, l logger.Logger) *GPIOSource {
	if chip == "" {
		chip = DefaultChip
	}
	if debounce == 0 {
		debounce = DefaultDebounce
	}
	return &GPIOSource{Chip: chip, Lines: lines, Debounce: debounce, log: logger.OrNop(l)}
}

// ParseLineMap parses "menu=17,back=27" into key to line offset pairs.
func ParseLineMap(s string) (map[button.Key]int, error) {
	lines := make(map[button.Key]int)
	offsets := make(map[int]button.Key)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not key=line", ErrSyntax, part)
		}
		k, err := button.ParseKey(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		offset, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("%w: invalid line offset %q for %s", ErrSyntax, value, k)
		}
		if _, dup := lines[k]; dup {
			return nil, fmt.Errorf("%w: %s mapped twice", ErrSyntax, k)
		}
		if other, dup := offsets[offset]; dup {
			return nil, fmt.Errorf("%w: line %d used by %s and %s", ErrSyntax, offset, other, k)
		}
		lines[k] = offset
		offsets[offset] = k
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty line map", ErrSyntax)
	}
	return lines, nil
}
