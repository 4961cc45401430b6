package command

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/pkg/uidhash"
)

// EnrollResult is printed by the enroll command.
type EnrollResult struct {
	File    string `json:"file"`
	Added   int    `json:"added"`
	Entries int    `json:"entries"`
}

// EnrollCommand returns the allowlist enrollment command.
func EnrollCommand() *cli.Command {
	return &cli.Command{
		Name:  "enroll",
		Usage: "Hash card UIDs into the allowlist file",
		Description: "UIDs are hashed with access.secret (GATECAM_ACCESS_SECRET) and written\n" +
			"as a JSON array. A running daemon picks the new file up by itself.",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "uid",
				Aliases: []string{"u"},
				Usage:   "Card UID to enroll (repeatable)",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Read UIDs from this file, one per line; - reads stdin",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Allowlist file (default access.authorized_file)",
			},
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "Replace the file instead of merging into it",
			},
		},
		Action: runEnroll,
	}
}

func runEnroll(c *cli.Context) error {
	cfg, err := loadConfig(c, 0)
	if err != nil {
		return err
	}
	if cfg.Access.Secret == "" {
		return cli.Exit("access.secret is required to hash UIDs", 2)
	}
	hasher, err := uidhash.New([]byte(cfg.Access.Secret))
	if err != nil {
		return err
	}

	uids := c.StringSlice("uid")
	if from := c.String("from"); from != "" {
		more, err := readUIDs(c, from)
		if err != nil {
			return err
		}
		uids = append(uids, more...)
	}
	if len(uids) == 0 {
		return cli.Exit("no UIDs given: use --uid or --from", 2)
	}

	path := cfg.Access.AuthorizedFile
	if c.IsSet("out") {
		path = c.String("out")
	}

	before := 0
	if !c.Bool("replace") {
		if allow, err := access.LoadAllowlist(path, hasher, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
			before = allow.Len()
		}
	}
	total, err := access.Enroll(path, hasher, uids, !c.Bool("replace"))
	if err != nil {
		return err
	}
	return printResult(c, EnrollResult{File: path, Added: total - before, Entries: total})
}

// readUIDs returns the non-blank lines of path, or of stdin for "-".
func readUIDs(c *cli.Context, path string) ([]string, error) {
	var r io.Reader = c.App.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var uids []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			uids = append(uids, line)
		}
	}
	return uids, sc.Err()
}
