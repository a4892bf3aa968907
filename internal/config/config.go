// Package config loads the buttonpad configuration file and resolves the RPC
// secret.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/buttonpad/buttonpad/internal/daemon"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/internal/input"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// FileName is the default configuration file name. Files ending in .yaml or
// .yml are read as YAML, anything else as JSON.
const FileName = "buttonpad.json"

// Input kinds.
const (
	InputStdin = "stdin"
	InputGPIO  = "gpio"
)

var ErrInvalid = errors.New("invalid config")

// IntervalsConfig holds gesture thresholds in milliseconds. Zero fields take
// the default.
type IntervalsConfig struct {
	EventDelayMs      int64 `json:"eventDelayMs,omitempty" yaml:"eventDelayMs,omitempty"`
	HardButtonDelayMs int64 `json:"hardButtonDelayMs,omitempty" yaml:"hardButtonDelayMs,omitempty"`
	ClickMinMs        int64 `json:"clickMinMs,omitempty" yaml:"clickMinMs,omitempty"`
	ClickMaxMs        int64 `json:"clickMaxMs,omitempty" yaml:"clickMaxMs,omitempty"`
	LongPressMinMs    int64 `json:"longPressMinMs,omitempty" yaml:"longPressMinMs,omitempty"`
	LongPressMaxMs    int64 `json:"longPressMaxMs,omitempty" yaml:"longPressMaxMs,omitempty"`
	LongPressRepeatMs int64 `json:"longPressRepeatMs,omitempty" yaml:"longPressRepeatMs,omitempty"`
}

// Intervals converts c, filling unset fields from gesture.DefaultIntervals.
func (c IntervalsConfig) Intervals() gesture.Intervals {
	iv := gesture.DefaultIntervals()
	set := func(dst *time.Duration, ms int64) {
		if ms != 0 {
			*dst = time.Duration(ms) * time.Millisecond
		}
	}
	set(&iv.EventDelay, c.EventDelayMs)
	set(&iv.HardButtonDelay, c.HardButtonDelayMs)
	set(&iv.ClickMin, c.ClickMinMs)
	set(&iv.ClickMax, c.ClickMaxMs)
	set(&iv.LongPressMin, c.LongPressMinMs)
	set(&iv.LongPressMax, c.LongPressMaxMs)
	set(&iv.LongPressRepeat, c.LongPressRepeatMs)
	return iv
}

type LogConfig struct {
	// Level is info, warning or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// EventLog also writes to the Windows Event Log. Ignored elsewhere.
	EventLog bool `json:"eventLog,omitempty" yaml:"eventLog,omitempty"`
}

type RPCConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Host      string `json:"host,omitempty" yaml:"host,omitempty"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
	ListenAll bool   `json:"listenAll,omitempty" yaml:"listenAll,omitempty"`
	// Secret is usually left empty in favour of the OS keyring.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
}

type InputConfig struct {
	// Kind is stdin or gpio.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Chip string `json:"chip,omitempty" yaml:"chip,omitempty"`
	// Lines maps keys to GPIO offsets, e.g. "menu=17,back=27".
	Lines      string `json:"lines,omitempty" yaml:"lines,omitempty"`
	DebounceMs int64  `json:"debounceMs,omitempty" yaml:"debounceMs,omitempty"`
}

// Config is the content of the configuration file.
type Config struct {
	Intervals IntervalsConfig `json:"intervals" yaml:"intervals"`
	Log       LogConfig       `json:"log" yaml:"log"`
	RPC       RPCConfig       `json:"rpc" yaml:"rpc"`
	Input     InputConfig     `json:"input" yaml:"input"`
	// Script is the path of a JavaScript file to load, if any.
	Script string `json:"script,omitempty" yaml:"script,omitempty"`
	// Meter draws a progress bar per held button.
	Meter bool `json:"meter,omitempty" yaml:"meter,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: logger.LevelInfo.String()},
		RPC: RPCConfig{
			Host: daemon.DefaultHost,
			Port: daemon.DefaultPort,
		},
		Input: InputConfig{
			Kind:       InputStdin,
			Chip:       input.DefaultChip,
			DebounceMs: input.DefaultDebounce.Milliseconds(),
		},
	}
}

// Load reads path from fsys over the defaults. A missing file is not an
// error. The result is validated.
func Load(fsys afero.Fs, path string) (*Config, error) {
	c := Default()
	f, err := fsys.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if isYAML(path) {
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		err = dec.Decode(c)
	} else {
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		err = dec.Decode(c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c to path, as YAML or indented JSON depending on the
// extension.
func Save(fsys afero.Fs, path string, c *Config) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o600)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Validate checks every section and reports all problems found.
func (c *Config) Validate() error {
	var result *multierror.Error
	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if err := c.Intervals.Intervals().Validate(); err != nil {
		invalid("%v", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		invalid("%v", err)
	}
	if c.RPC.Port < 0 || c.RPC.Port > 65535 {
		invalid("rpc port %d out of range", c.RPC.Port)
	}
	if c.Input.DebounceMs < 0 {
		invalid("negative debounce %dms", c.Input.DebounceMs)
	}
	switch c.Input.Kind {
	case "", InputStdin:
	case InputGPIO:
		if _, err := input.ParseLineMap(c.Input.Lines); err != nil {
			invalid("gpio lines: %v", err)
		}
	default:
		invalid("unknown input kind %q", c.Input.Kind)
	}
	return result.ErrorOrNil()
}
