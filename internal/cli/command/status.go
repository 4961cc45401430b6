package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/cli/connection"
)

// StatusCommand returns the daemon health command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the health of a running daemon (default server: http.addr)",
		Action: runStatus,
	}
}

func runStatus(c *cli.Context) error {
	server := ParseGlobalFlags(c).Server
	if server == "" {
		cfg, err := loadConfig(c, needHTTP)
		if err != nil {
			return err
		}
		server = cfg.HTTP.Addr
	}

	health, err := connection.NewHTTPClient(server, 0).Health(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("daemon at %s: %v", server, err), 1)
	}
	if err := printResult(c, health); err != nil {
		return err
	}
	if health.Status != "ok" {
		return cli.Exit("", 1)
	}
	return nil
}
