package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/buttonpad/buttonpad/cmd/common"
	"github.com/buttonpad/buttonpad/internal/input"
)

func replay(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no replay file provided"),
		)
	} else if file == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "replay", "load_config", err)
		return nil
	}
	if ctx.IsSet("script") {
		cfg.Script = ctx.String("script")
	}
	// replay only feeds the classifier, nothing listens for clients
	cfg.RPC.Enabled = false
	cfg.Meter = false

	l, err := newLogger(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "replay", "new_logger", err)
		return nil
	}
	defer l.Close()

	src, err := input.LoadReplay(appFs, file, l)
	if err != nil {
		common.PrintRuntimeErr(ctx, "replay", "load_replay", err)
		return nil
	}
	p, err := newPipeline(cfg, l, "")
	if err != nil {
		common.PrintRuntimeErr(ctx, "replay", "new_pipeline", err)
		return nil
	}
	defer p.close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("replaying %d edges over %v", len(src.Steps()), src.Duration())
	if err := src.Run(sigCtx, p.classifier); err != nil {
		if !errors.Is(err, context.Canceled) {
			common.PrintRuntimeErr(ctx, "replay", "run", err)
		}
		return nil
	}
	settle(sigCtx, p.classifier.Intervals())
	return nil
}
