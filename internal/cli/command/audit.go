package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/cli/connection"
	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
	"github.com/yndnr/gatecam/internal/storage/audit"
)

// AuditCommand returns the audit log listing command.
func AuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "List the newest audit records",
		Description: "Reads the store directly, or the daemon's /v1/audit with --server.\n" +
			"The Badger backend is locked by a running daemon; use --server then.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Number of records",
				Value:   20,
			},
		},
		Action: runAudit,
	}
}

func runAudit(c *cli.Context) error {
	limit := c.Int("limit")
	if limit < 0 {
		return cli.Exit("--limit must not be negative", 2)
	}

	if server := ParseGlobalFlags(c).Server; server != "" {
		list, err := connection.NewHTTPClient(server, 0).Audit(c.Context, limit)
		if err != nil {
			return err
		}
		return printResult(c, list.Records)
	}

	cfg, err := loadConfig(c, 0)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	store, err := audit.Open(cfg.Audit, log)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(c.Context, limit)
	if err != nil {
		return err
	}
	rows := make([]handler.AuditRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, handler.NewAuditRecord(rec))
	}
	return printResult(c, rows)
}
