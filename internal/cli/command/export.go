package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/export"
	"github.com/yndnr/gatecam/internal/storage/audit"
)

// ExportResult is printed by the export command.
type ExportResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// ExportCommand returns the manual export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the audit log to the daily CSV file now",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write to this file instead of export.path",
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	cfg, err := loadConfig(c, 0)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	path := cfg.Export.Path
	if c.IsSet("out") {
		path = c.String("out")
	}
	if path == "" {
		return cli.Exit("no export path: set export.path or --out", 2)
	}

	store, err := audit.Open(cfg.Audit, log)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := export.NewExporter(store, path, log).Export(c.Context)
	if err != nil {
		return err
	}
	return printResult(c, ExportResult{Path: path, Rows: rows})
}
