package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"

	"github.com/buttonpad/buttonpad/internal/config"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/internal/meter"
	"github.com/buttonpad/buttonpad/internal/scheduler"
	"github.com/buttonpad/buttonpad/internal/script"
	"github.com/buttonpad/buttonpad/internal/server"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// meterOutput is where hold bars are drawn.
var meterOutput io.Writer = os.Stdout

// isTerminal reports whether meterOutput is a terminal.
var isTerminal = func() bool {
	f, ok := meterOutput.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// pipeline is the scheduler, the classifier and every listener attached to
// it for one run.
type pipeline struct {
	log        logger.Logger
	sched      *scheduler.Scheduler
	classifier *gesture.Classifier

	mu     sync.Mutex
	script *script.Runtime

	progress *mpb.Progress
	meter    *meter.Meter
	rpc      *server.RPCServer
}

// newPipeline wires the components cfg enables. secret is only used when
// RPC is enabled.
func newPipeline(cfg *config.Config, l logger.Logger, secret string) (*pipeline, error) {
	l = logger.OrNop(l)
	p := &pipeline{log: l}
	p.sched = scheduler.New(scheduler.Options{Logger: l})
	c, err := gesture.NewClassifier(gesture.Options{
		Intervals: cfg.Intervals.Intervals(),
		Scheduler: p.sched,
		Logger:    l,
	})
	if err != nil {
		p.sched.Close()
		return nil, err
	}
	p.classifier = c

	ll := gesture.NewLogListener(l)
	c.AddButtonListener(ll)
	c.AddNoiseListener(ll)

	if cfg.Script != "" {
		rt, err := script.Load(appFs, cfg.Script, l)
		if err != nil {
			p.close()
			return nil, fmt.Errorf("load script: %w", err)
		}
		p.setScript(rt)
	}

	if cfg.Meter {
		if isTerminal() {
			p.progress = mpb.New(mpb.WithOutput(meterOutput), mpb.WithWidth(64))
			p.meter = meter.New(p.progress, c.Intervals())
			c.AddButtonListener(p.meter)
		} else {
			l.Warning("output is not a terminal, hold meter disabled")
		}
	}

	if cfg.RPC.Enabled {
		p.rpc = server.NewRPCServer(&server.RPCConfig{
			Secret:    secret,
			ListenAll: cfg.RPC.ListenAll,
			Version:   currentBuildArgs.Version,
			Commit:    currentBuildArgs.Commit,
			BuildType: currentBuildArgs.BuildType,
		}, c, l)
	}
	return p, nil
}

// setScript attaches rt in place of the current script, if any.
func (p *pipeline) setScript(rt *script.Runtime) {
	p.mu.Lock()
	old := p.script
	p.script = rt
	p.mu.Unlock()

	p.classifier.AddButtonListener(rt)
	p.classifier.AddNoiseListener(rt)
	if old != nil {
		p.classifier.RemoveButtonListener(old)
		p.classifier.RemoveNoiseListener(old)
	}
}

// reloadScript loads path again. On failure the running script is kept.
func (p *pipeline) reloadScript(path string) {
	rt, err := script.Load(appFs, path, p.log)
	if err != nil {
		p.log.Error("reload %s: %v, keeping the previous version", path, err)
		return
	}
	p.setScript(rt)
	p.log.Info("reloaded script %s", path)
}

func (p *pipeline) currentScript() *script.Runtime {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.script
}

// close detaches network clients, stops the meter and drops pending
// gestures.
func (p *pipeline) close() {
	if p.rpc != nil {
		p.rpc.Close()
	}
	if p.meter != nil {
		p.meter.Close()
		p.progress.Wait()
	}
	p.sched.Close()
}
