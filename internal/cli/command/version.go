package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/infra/buildinfo"
)

// VersionCommand returns the build information command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			return printResult(c, buildinfo.Get())
		},
	}
}
