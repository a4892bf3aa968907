package cmd

import (
	"github.com/urfave/cli"

	"github.com/buttonpad/buttonpad/internal/config"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "configuration file (.json, .yaml or .yml)",
		Value:  config.FileName,
		EnvVar: "BUTTONPAD_CONFIG",
	},
	cli.StringFlag{
		Name:   "log-level",
		Usage:  "minimum log level: info, warning or error",
		EnvVar: "BUTTONPAD_LOG_LEVEL",
	},
}

var runFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "input",
		Usage:  "edge source: stdin or gpio",
		EnvVar: "BUTTONPAD_INPUT",
	},
	cli.StringFlag{
		Name:   "gpio-chip",
		Usage:  "GPIO character device, e.g. gpiochip0",
		EnvVar: "BUTTONPAD_GPIO_CHIP",
	},
	cli.StringFlag{
		Name:   "gpio-lines",
		Usage:  "key to line offset map, e.g. menu=17,back=27",
		EnvVar: "BUTTONPAD_GPIO_LINES",
	},
	cli.BoolFlag{
		Name:   "rpc",
		Usage:  "serve JSON-RPC over HTTP and WebSocket",
		EnvVar: "BUTTONPAD_RPC",
	},
	cli.StringFlag{
		Name:   "rpc-host",
		Usage:  "interface the JSON-RPC endpoint binds to",
		EnvVar: "BUTTONPAD_RPC_HOST",
	},
	cli.IntFlag{
		Name:   "rpc-port",
		Usage:  "JSON-RPC port, implies --rpc",
		EnvVar: "BUTTONPAD_RPC_PORT",
	},
	cli.StringFlag{
		Name:   "rpc-secret",
		Usage:  "JSON-RPC bearer token, defaults to the one in the OS keyring",
		EnvVar: "BUTTONPAD_RPC_SECRET",
	},
	cli.StringFlag{
		Name:   "script",
		Usage:  "JavaScript file with gesture handlers",
		EnvVar: "BUTTONPAD_SCRIPT",
	},
	cli.BoolFlag{
		Name:   "watch",
		Usage:  "reload the script when it changes",
		EnvVar: "BUTTONPAD_WATCH",
	},
	cli.BoolFlag{
		Name:   "meter",
		Usage:  "draw a progress bar for every held button",
		EnvVar: "BUTTONPAD_METER",
	},
}

var replayFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "script",
		Usage:  "JavaScript file with gesture handlers",
		EnvVar: "BUTTONPAD_SCRIPT",
	},
}

// loadConfig reads the configuration file named by the global flags and
// applies the global overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(appFs, ctx.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if ctx.GlobalIsSet("log-level") {
		cfg.Log.Level = ctx.GlobalString("log-level")
	}
	return cfg, cfg.Validate()
}

// applyRunFlags overrides cfg with every run flag that was given.
func applyRunFlags(ctx *cli.Context, cfg *config.Config) error {
	if ctx.IsSet("input") {
		cfg.Input.Kind = ctx.String("input")
	}
	if ctx.IsSet("gpio-chip") {
		cfg.Input.Chip = ctx.String("gpio-chip")
	}
	if ctx.IsSet("gpio-lines") {
		cfg.Input.Lines = ctx.String("gpio-lines")
	}
	if ctx.Bool("rpc") {
		cfg.RPC.Enabled = true
	}
	if ctx.IsSet("rpc-host") {
		cfg.RPC.Host = ctx.String("rpc-host")
	}
	if ctx.IsSet("rpc-port") {
		cfg.RPC.Port = ctx.Int("rpc-port")
		cfg.RPC.Enabled = true
	}
	if ctx.IsSet("script") {
		cfg.Script = ctx.String("script")
	}
	if ctx.Bool("meter") {
		cfg.Meter = true
	}
	return cfg.Validate()
}
