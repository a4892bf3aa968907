package script

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/buttonpad/buttonpad/internal/button"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

const recorderScript = `
var events = [];
function onDown(key) { events.push("down " + key); }
function onUp(key) { events.push("up " + key); }
function onClick(key) { events.push("click " + key); }
function onLongPress(key) { events.push("longPress " + key); }
function onContinuedLongPress(key, elapsedMs, repeat) {
	events.push("continued " + key + " " + elapsedMs + " " + repeat);
}
function onTooShort(key, ageMs) { events.push("tooShort " + key + " " + ageMs); }
function onAmbiguous(key, ageMs) { events.push("ambiguous " + key + " " + ageMs); }
function onTooLong(key, ageMs) { events.push("tooLong " + key + " " + ageMs); }
`

func writeScript(t *testing.T, fs afero.Fs, path, src string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func events(t *testing.T, r *Runtime) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.vm.RunString(`events.join(",")`)
	if err != nil {
		t.Fatal(err)
	}
	return v.String()
}

func TestRuntime_Hooks(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeScript(t, fs, "/etc/buttonpad/main.js", recorderScript)

	r, err := Load(fs, "/etc/buttonpad/main.js", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	r.HandleButtonDown(button.KeyMenu)
	r.HandleButtonUp(button.KeyMenu)
	r.HandleClick(button.KeyMenu)
	r.HandleLongPress(button.KeyLCD1)
	r.HandleContinuedLongPress(button.KeyLCD1, 10500*time.Millisecond, 1)
	r.HandleTooShort(button.KeyBack, 40*time.Millisecond)
	r.HandleAmbiguous(button.KeyBack, 1700*time.Millisecond)
	r.HandleTooLong(button.KeyBack, 11*time.Second)

	want := strings.Join([]string{
		"down menu",
		"up menu",
		"click menu",
		"longPress lcd1",
		"continued lcd1 10500 1",
		"tooShort back 40",
		"ambiguous back 1700",
		"tooLong back 11000",
	}, ",")
	if got := events(t, r); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRuntime_MissingHooksAreSkipped(t *testing.T) {
	r, err := New(afero.NewMemMapFs(), "partial.js", `var clicks = 0; function onClick() { clicks++; }`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Has(hookDown) || !r.Has(hookClick) {
		t.Fatal("unexpected hook detection")
	}

	r.HandleButtonDown(button.KeyLCD1)
	r.HandleClick(button.KeyLCD1)
	r.HandleTooLong(button.KeyLCD1, time.Minute)

	if v := r.vm.Get("clicks").ToInteger(); v != 1 {
		t.Fatalf("expected 1 click, got %d", v)
	}
}

func TestRuntime_PrintAndLog(t *testing.T) {
	mock := logger.NewMockLogger()
	src := `
print("hello", 42);
log.info("ready");
log.warn("careful");
log.error("broken", "badly");
`
	if _, err := New(afero.NewMemMapFs(), "log.js", src, mock); err != nil {
		t.Fatal(err)
	}

	if infos := mock.Infos(); len(infos) != 2 || infos[0] != "script: hello 42" || infos[1] != "script: ready" {
		t.Errorf("unexpected infos %v", infos)
	}
	if w := mock.Warnings(); len(w) != 1 || w[0] != "script: careful" {
		t.Errorf("unexpected warnings %v", w)
	}
	if e := mock.Errors(); len(e) != 1 || e[0] != "script: broken badly" {
		t.Errorf("unexpected errors %v", e)
	}
}

func TestRuntime_ExceptionIsLogged(t *testing.T) {
	mock := logger.NewMockLogger()
	r, err := New(afero.NewMemMapFs(), "throw.js", `function onClick(key) { throw new Error("no handler for " + key); }`, mock)
	if err != nil {
		t.Fatal(err)
	}

	r.HandleClick(button.KeyLCD4)

	errs := mock.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0], "no handler for lcd4") {
		t.Fatalf("expected the exception to be logged, got %v", errs)
	}
}

func TestRuntime_Timeout(t *testing.T) {
	mock := logger.NewMockLogger()
	r, err := New(afero.NewMemMapFs(), "loop.js", `var n = 0; function onClick() { for (;;) {} } function onUp() { n++; }`, mock)
	if err != nil {
		t.Fatal(err)
	}
	r.SetCallTimeout(50 * time.Millisecond)

	start := time.Now()
	r.HandleClick(button.KeyLCD1)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("runaway handler was not interrupted: %v", elapsed)
	}
	errs := mock.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0], "interrupted") {
		t.Fatalf("expected an interruption error, got %v", errs)
	}

	// the runtime stays usable
	r.HandleButtonUp(button.KeyLCD1)
	if v := r.vm.Get("n").ToInteger(); v != 1 {
		t.Fatalf("expected handler to run after interrupt, got %d", v)
	}
}

func TestRuntime_Require(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeScript(t, fs, "/scripts/lib/keys.js", `module.exports = { label: function (k) { return "[" + k + "]"; } };`)
	writeScript(t, fs, "/scripts/main.js", `
var keys = require("./lib/keys.js");
var last = "";
function onClick(key) { last = keys.label(key); }
`)

	r, err := Load(fs, "/scripts/main.js", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.HandleClick(button.KeyEnter)
	if got := r.vm.Get("last").String(); got != "[enter]" {
		t.Fatalf("expected [enter], got %q", got)
	}

	if _, err := r.Require("./lib/keys.js"); err != nil {
		t.Errorf("Require: %v", err)
	}
	if _, err := r.Require("./lib/missing.js"); err == nil {
		t.Error("expected error for a missing module")
	}
}

func TestLoad_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Load(fs, "/missing.js", nil); err == nil {
		t.Error("expected error for a missing script")
	}

	writeScript(t, fs, "/syntax.js", "function (")
	if _, err := Load(fs, "/syntax.js", nil); err == nil {
		t.Error("expected error for a syntax error")
	}

	writeScript(t, fs, "/throws.js", `throw new Error("at load")`)
	if _, err := Load(fs, "/throws.js", nil); err == nil || !strings.Contains(err.Error(), "at load") {
		t.Errorf("expected load-time exception, got %v", err)
	}
}
