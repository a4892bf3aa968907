package cmd

const DESCRIPTION = `
buttonpad turns raw button edges from a console into gestures: clicks,
long presses, continued long presses and the noise in between. Gestures
are logged, handed to an optional JavaScript file and pushed to JSON-RPC
clients.
`

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Options:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const (
	RunDescription = `The run command starts classifying button edges until
it is interrupted. Edges come from stdin (simulator protocol,
"keypress 9" / "keyrelease 9") or from GPIO lines.

Example:
        buttonpad run
        buttonpad run --input gpio --gpio-lines menu=17,back=27
        buttonpad run --rpc --script actions.js --meter

`
	ReplayDescription = `The replay command feeds a timed script of edges through
the classifier and logs the gestures it produces.
Each line is "<offset> <down|up> <key>".

Example:
        buttonpad replay session.txt

`
	IntervalsDescription = `The intervals command prints the gesture thresholds in
effect after reading the configuration file.

Example:
        buttonpad intervals

`
	SecretDescription = `The secret command manages the token JSON-RPC clients
must send as "Authorization: Bearer <token>". It is kept in
the OS keyring. Without an argument a random one is generated.

Example:
        buttonpad secret set
        buttonpad secret set my-token

`
)
