package cmd

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/buttonpad/buttonpad/cmd/common"
	"github.com/buttonpad/buttonpad/internal/config"
	"github.com/buttonpad/buttonpad/internal/daemon"
	"github.com/buttonpad/buttonpad/internal/gesture"
	"github.com/buttonpad/buttonpad/internal/input"
	"github.com/buttonpad/buttonpad/internal/scheduler"
	"github.com/buttonpad/buttonpad/internal/script"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// stdin feeds the line source.
var stdin io.Reader = os.Stdin

// errInputDone stops the serve group once the only event source is gone.
var errInputDone = errors.New("input closed")

func run(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "run", "load_config", err)
		return nil
	}
	if err := applyRunFlags(ctx, cfg); err != nil {
		common.PrintRuntimeErr(ctx, "run", "parse_flags", err)
		return nil
	}
	l, err := newLogger(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "run", "new_logger", err)
		return nil
	}
	defer l.Close()

	var secret string
	if cfg.RPC.Enabled {
		secret, err = config.ResolveSecret(ctx.String("rpc-secret"), cfg.RPC.Secret)
		if err != nil {
			common.PrintRuntimeErr(ctx, "run", "rpc_secret", err)
			return nil
		}
	}
	src, err := newSource(cfg, l)
	if err != nil {
		common.PrintRuntimeErr(ctx, "run", "new_source", err)
		return nil
	}
	p, err := newPipeline(cfg, l, secret)
	if err != nil {
		common.PrintRuntimeErr(ctx, "run", "new_pipeline", err)
		return nil
	}
	defer p.close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serve(sigCtx, cfg, p, src, ctx.Bool("watch")); err != nil {
		common.PrintRuntimeErr(ctx, "run", "serve", err)
	}
	return nil
}

func newSource(cfg *config.Config, l logger.Logger) (input.Source, error) {
	switch cfg.Input.Kind {
	case config.InputGPIO:
		lines, err := input.ParseLineMap(cfg.Input.Lines)
		if err != nil {
			return nil, err
		}
		debounce := time.Duration(cfg.Input.DebounceMs) * time.Millisecond
		return input.NewGPIOSource(cfg.Input.Chip, lines, debounce, l), nil
	default:
		return input.NewLineSource(stdin, l), nil
	}
}

// serve runs the input source, and the JSON-RPC endpoint and script watcher
// when enabled, until ctx is done or one of them fails. Without an RPC
// endpoint the end of input also ends serve, once pending gestures fired.
func serve(ctx context.Context, cfg *config.Config, p *pipeline, src input.Source, watch bool) error {
	g, gctx := errgroup.WithContext(ctx)

	if p.rpc != nil {
		host := cfg.RPC.Host
		if cfg.RPC.ListenAll {
			host = "0.0.0.0"
		}
		runner := daemon.New(&daemon.Config{
			Host:            host,
			Port:            cfg.RPC.Port,
			ShutdownTimeout: daemon.DefaultShutdownTimeout,
		}, &daemon.Dependencies{Handler: p.rpc.Handler()})
		p.log.Info("json-rpc listening on %s", net.JoinHostPort(host, strconv.Itoa(cfg.RPC.Port)))
		g.Go(func() error {
			return ignoreCanceled(runner.Start(gctx))
		})
	}

	if watch && cfg.Script != "" {
		g.Go(func() error {
			return ignoreCanceled(script.Watch(gctx, cfg.Script, p.log, func() {
				p.reloadScript(cfg.Script)
			}))
		})
	}

	g.Go(func() error {
		if err := src.Run(gctx, p.classifier); err != nil {
			return ignoreCanceled(err)
		}
		p.log.Info("input closed")
		if p.rpc != nil {
			return nil
		}
		settle(gctx, p.classifier.Intervals())
		return errInputDone
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errInputDone) {
		return err
	}
	return nil
}

// settle waits long enough for deferred clicks and long presses of the last
// release to fire.
func settle(ctx context.Context, iv gesture.Intervals) {
	wait := max(iv.EventDelay, iv.HardButtonDelay) + 2*scheduler.MinLead
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
