package common

import (
	"errors"
	"flag"
	"testing"

	"github.com/urfave/cli"
)

func newTestContext(args ...string) *cli.Context {
	app := cli.NewApp()
	app.Name = "buttonpad"
	app.HelpName = "buttonpad"
	app.Version = "test"
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	_ = set.Parse(args)
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: "run"}
	return ctx
}

// stubHelp replaces both help printers for the duration of the test and
// reports which of them ran.
func stubHelp(t *testing.T, cmdErr error) (app, cmd *bool) {
	t.Helper()
	app, cmd = new(bool), new(bool)
	origApp, origCmd := showAppHelpAndExit, showCommandHelp
	showAppHelpAndExit = func(*cli.Context, int) { *app = true }
	showCommandHelp = func(*cli.Context, string) error {
		*cmd = true
		return cmdErr
	}
	t.Cleanup(func() {
		showAppHelpAndExit, showCommandHelp = origApp, origCmd
	})
	return app, cmd
}

func TestBeaut(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hi", 4, " hi "},
		{"hi", 5, " hi  "},
		{"click", 5, "click"},
		{"too long", 3, "too long"},
	}
	for _, tt := range tests {
		if got := Beaut(tt.s, tt.n); got != tt.want {
			t.Errorf("Beaut(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
	if vals := replic('x', 3); len(vals) != 3 || vals[2] != 'x' {
		t.Fatalf("unexpected replic output: %v", vals)
	}
}

func TestPrintRuntimeErr(t *testing.T) {
	PrintRuntimeErr(nil, "run", "load_config", nil)
	PrintRuntimeErr(newTestContext(), "run", "load_config", errors.New("boom"))
}

func TestPrintErrWithHelp(t *testing.T) {
	app, _ := stubHelp(t, nil)
	if err := PrintErrWithHelp(newTestContext(), errors.New("oops")); err != nil {
		t.Fatalf("PrintErrWithHelp: %v", err)
	}
	if !*app {
		t.Fatal("expected app help")
	}
}

func TestPrintErrWithHelp_HelpRequested(t *testing.T) {
	app, _ := stubHelp(t, nil)
	if err := PrintErrWithHelp(newTestContext(), errors.New("flag: help requested")); err != nil {
		t.Fatalf("PrintErrWithHelp: %v", err)
	}
	if !*app {
		t.Fatal("expected app help")
	}
}

func TestPrintErrWithHelp_Nil(t *testing.T) {
	app, cmd := stubHelp(t, nil)
	if err := PrintErrWithHelp(newTestContext(), nil); err != nil {
		t.Fatalf("PrintErrWithHelp: %v", err)
	}
	if *app || *cmd {
		t.Fatal("no help expected for a nil error")
	}
}

func TestPrintErrWithCmdHelp(t *testing.T) {
	_, cmd := stubHelp(t, errors.New("boom"))
	if err := PrintErrWithCmdHelp(newTestContext(), errors.New("oops")); err != nil {
		t.Fatalf("PrintErrWithCmdHelp: %v", err)
	}
	if !*cmd {
		t.Fatal("expected command help")
	}
}

func TestUsageErrorCallback(t *testing.T) {
	app, cmd := stubHelp(t, nil)

	if err := UsageErrorCallback(newTestContext(), errors.New("bad flag"), false); err != nil {
		t.Fatalf("UsageErrorCallback: %v", err)
	}
	if !*cmd || *app {
		t.Fatalf("expected command help only, app=%v cmd=%v", *app, *cmd)
	}

	*cmd = false
	ctx := newTestContext()
	ctx.Command = cli.Command{}
	if err := UsageErrorCallback(ctx, errors.New("bad flag"), false); err != nil {
		t.Fatalf("UsageErrorCallback: %v", err)
	}
	if !*app {
		t.Fatal("expected app help for an app level error")
	}
}

func TestHelp(t *testing.T) {
	app, cmd := stubHelp(t, nil)
	if err := Help(newTestContext()); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if !*app || *cmd {
		t.Fatal("expected app help")
	}

	*app = false
	if err := Help(newTestContext("replay")); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if !*cmd || *app {
		t.Fatal("expected command help")
	}
}

func TestHelp_UnknownCommand(t *testing.T) {
	app, _ := stubHelp(t, errors.New("no help topic for 'nope'"))
	if err := Help(newTestContext("nope")); err != nil {
		t.Fatalf("Help: %v", err)
	}
	if !*app {
		t.Fatal("expected app help after an unknown topic")
	}
}

func TestGetVersion(t *testing.T) {
	orig := VersionCmdStr
	defer func() { VersionCmdStr = orig }()
	VersionCmdStr = "buttonpad 1.0.0"
	if err := GetVersion(newTestContext()); err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
}
