// Package script runs user JavaScript in response to gestures. A script
// defines any of these global functions:
//
//	onDown(key)  onUp(key)  onClick(key)  onLongPress(key)
//	onContinuedLongPress(key, elapsedMs, repeat)
//	onTooShort(key, ageMs)  onAmbiguous(key, ageMs)  onTooLong(key, ageMs)
//
// and may use print, log.info/log.warn/log.error and require.
package script

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	requirePkg "github.com/dop251/goja_nodejs/require"
	"github.com/spf13/afero"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// DefaultCallTimeout bounds a single handler call.
const DefaultCallTimeout = time.Second

// Hook names looked up in the script's global scope.
const (
	hookDown               = "onDown"
	hookUp                 = "onUp"
	hookClick              = "onClick"
	hookLongPress          = "onLongPress"
	hookContinuedLongPress = "onContinuedLongPress"
	hookTooShort           = "onTooShort"
	hookAmbiguous          = "onAmbiguous"
	hookTooLong            = "onTooLong"
)

var errTimeout = errors.New("handler timed out")

// Runtime is a loaded script. Calls into it are serialized: gestures arrive
// from producer goroutines and the scheduler at the same time.
type Runtime struct {
	mu      sync.Mutex
	vm      *goja.Runtime
	req     *requirePkg.RequireModule
	name    string
	timeout time.Duration
	log     logger.Logger
}

// Load reads the script at p from fs and runs its top level.
func Load(fs afero.Fs, p string, l logger.Logger) (*Runtime, error) {
	src, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return New(fs, p, string(src), l)
}

// New creates a Runtime from source. name is used in stack traces and as the
// base directory for require.
func New(fs afero.Fs, name, src string, l logger.Logger) (*Runtime, error) {
	r := &Runtime{
		vm:      goja.New(),
		name:    name,
		timeout: DefaultCallTimeout,
		log:     logger.OrNop(l),
	}
	registry := requirePkg.NewRegistry(requirePkg.WithLoader(moduleLoader(fs, filepath.Dir(name))))
	r.req = registry.Enable(r.vm)

	if err := r.vm.Set("print", r.print); err != nil {
		return nil, err
	}
	logObj := r.vm.NewObject()
	for fn, method := range map[string]func(string, ...interface{}){
		"info":  r.log.Info,
		"warn":  r.log.Warning,
		"error": r.log.Error,
	} {
		method := method
		if err := logObj.Set(fn, func(call goja.FunctionCall) goja.Value {
			method("script: %s", joinArgs(call.Arguments))
			return goja.Undefined()
		}); err != nil {
			return nil, err
		}
	}
	if err := r.vm.Set("log", logObj); err != nil {
		return nil, err
	}

	if _, err := r.vm.RunScript(name, src); err != nil {
		return nil, fmt.Errorf("run script %s: %w", name, err)
	}
	return r, nil
}

// moduleLoader resolves require paths against dir on fs.
func moduleLoader(fs afero.Fs, dir string) requirePkg.SourceLoader {
	return func(p string) ([]byte, error) {
		if !path.IsAbs(p) {
			p = filepath.Join(dir, filepath.FromSlash(p))
		}
		data, err := afero.ReadFile(fs, p)
		if errors.Is(err, os.ErrNotExist) {
			return nil, requirePkg.ModuleFileDoesNotExistError
		}
		return data, err
	}
}

// SetCallTimeout changes how long one handler may run before it is
// interrupted.
func (r *Runtime) SetCallTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Require loads a module the same way the script's require does.
func (r *Runtime) Require(p string) (goja.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req.Require(p)
}

// Has reports whether the script defines the named global function.
func (r *Runtime) Has(hook string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := goja.AssertFunction(r.vm.Get(hook))
	return ok
}

// call invokes hook if the script defines it. Errors and exceptions are
// logged; gesture delivery goes on.
func (r *Runtime) call(hook string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := goja.AssertFunction(r.vm.Get(hook))
	if !ok {
		return
	}
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = r.vm.ToValue(a)
	}

	timer := time.AfterFunc(r.timeout, func() {
		r.vm.Interrupt(errTimeout)
	})
	_, err := fn(goja.Undefined(), vals...)
	timer.Stop()
	r.vm.ClearInterrupt()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			r.log.Error("script %s: %s interrupted after %v", r.name, hook, r.timeout)
			return
		}
		r.log.Error("script %s: %s: %v", r.name, hook, err)
	}
}

func (r *Runtime) print(call goja.FunctionCall) goja.Value {
	r.log.Info("script: %s", joinArgs(call.Arguments))
	return goja.Undefined()
}

func joinArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

func (r *Runtime) HandleButtonDown(b button.Button) { r.call(hookDown, b.String()) }
func (r *Runtime) HandleButtonUp(b button.Button) { r.call(hookUp, b.String()) }
func (r *Runtime) HandleClick(b button.Button) { r.call(hookClick, b.String()) }
func (r *Runtime) HandleLongPress(b button.Button) { r.call(hookLongPress, b.String()) }

func (r *Runtime) HandleContinuedLongPress(b button.Button, elapsed time.Duration, repeat int) {
	r.call(hookContinuedLongPress, b.String(), elapsed.Milliseconds(), repeat)
}

func (r *Runtime) HandleTooShort(b button.Button, age time.Duration) {
	r.call(hookTooShort, b.String(), age.Milliseconds())
}

func (r *Runtime) HandleAmbiguous(b button.Button, age time.Duration) {
	r.call(hookAmbiguous, b.String(), age.Milliseconds())
}

func (r *Runtime) HandleTooLong(b button.Button, age time.Duration) {
	r.call(hookTooLong, b.String(), age.Milliseconds())
}

var (
	_ gesture.ButtonListener = (*Runtime)(nil)
	_ gesture.NoiseListener  = (*Runtime)(nil)
)
