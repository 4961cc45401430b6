package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/cli/output"
	"github.com/yndnr/gatecam/internal/server/config"
)

// ConfigCommand returns the configuration subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the merged configuration with secrets masked",
				Action: configShow,
			},
			{
				Name:   "check",
				Usage:  "Verify the configuration used by `gatecam run`",
				Action: configCheck,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	cfg, err := config.Read(ParseGlobalFlags(c).Config, flagOverrides(c))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	// Nested sections do not fit a table.
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.NewFormatter(format, false).Format(c.App.Writer, config.ToMap(config.Sanitize(cfg)))
}

func configCheck(c *cli.Context) error {
	if _, err := loadConfig(c, needAccess|needExport|needHTTP); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "configuration OK")
	return nil
}
