package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/buttonpad/buttonpad/cmd/common"
	"github.com/buttonpad/buttonpad/internal/gesture"
)

func intervals(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "intervals", "load_config", err)
		return nil
	}
	printIntervals(os.Stdout, cfg.Intervals.Intervals())
	return nil
}

func printIntervals(w io.Writer, iv gesture.Intervals) {
	rows := []struct {
		name string
		d    time.Duration
	}{
		{"event delay", iv.EventDelay},
		{"hard button delay", iv.HardButtonDelay},
		{"click min", iv.ClickMin},
		{"click max", iv.ClickMax},
		{"long press min", iv.LongPressMin},
		{"long press max", iv.LongPressMax},
		{"long press repeat", iv.LongPressRepeat},
	}
	txt := "----------------------------------"
	txt += "\n|      Interval       |  Value   |"
	txt += "\n|---------------------|----------|"
	for _, r := range rows {
		txt += fmt.Sprintf("\n| %s | %8s |", common.Beaut(r.name, 19), r.d)
	}
	txt += "\n----------------------------------"
	fmt.Fprintln(w, txt)
}
