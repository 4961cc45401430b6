package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/cli/output"
	"github.com/yndnr/gatecam/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gatecam",
		Usage:   "RFID door controller with remote camera capture over MQTT",
		Version: buildinfo.Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			CaptureCommand(),
			ExportCommand(),
			EnrollCommand(),
			EmulateCameraCommand(),
			AuditCommand(),
			StatusCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		// Errors, exit codes included, are reported by the caller of Run.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"GATECAM_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Override log.level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Address of a running daemon's HTTP API, e.g. 127.0.0.1:8080",
			EnvVars: []string{"GATECAM_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config   string
	LogLevel string
	Server   string
	Output   string
	Wide     bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:   c.String("config"),
		LogLevel: c.String("log-level"),
		Server:   c.String("server"),
		Output:   c.String("output"),
		Wide:     c.Bool("wide"),
	}
}

// printResult writes data to the app's writer in the selected format.
func printResult(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}
