package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/buttonpad/buttonpad/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

// appFs is where configuration, scripts and replay files are read from.
var appFs = afero.NewOsFs()

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "buttonpad",
		HelpName:              "buttonpad",
		Usage:                 "A button gesture daemon for programmable consoles.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "buttonpad [global options] <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "run",
				Usage:              "classify button edges until interrupted",
				Description:        RunDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             run,
				Flags:              runFlags,
			},
			{
				Name:               "replay",
				Usage:              "feed a timed edge script through the classifier",
				UsageText:          "replay [command options] FILE",
				Description:        ReplayDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             replay,
				Flags:              replayFlags,
			},
			{
				Name:               "intervals",
				Aliases:            []string{"iv"},
				Usage:              "print the gesture thresholds in effect",
				Description:        IntervalsDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             intervals,
			},
			{
				Name:        "secret",
				Usage:       "manage the JSON-RPC secret",
				Description: SecretDescription,
				Subcommands: []cli.Command{
					{
						Name:               "set",
						Usage:              "store a secret in the OS keyring",
						UsageText:          "secret set [SECRET]",
						Description:        SecretDescription,
						OnUsageError:       common.UsageErrorCallback,
						CustomHelpTemplate: CMD_HELP_TEMPL,
						Action:             secretSet,
					},
				},
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of buttonpad",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
