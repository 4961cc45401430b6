package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/cli/connection"
	"github.com/yndnr/gatecam/internal/cli/output"
	"github.com/yndnr/gatecam/internal/core/service"
	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
	"github.com/yndnr/gatecam/internal/storage/photo"
)

// CaptureCommand returns the one-shot capture command.
func CaptureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Take one photo without a card read and print where it was saved",
		Description: "Without --server the command connects to the broker itself and must not\n" +
			"run next to a daemon using the same client id. With --server the daemon\n" +
			"takes the photo.",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Override capture.timeout",
			},
		},
		Action: runCapture,
	}
}

func runCapture(c *cli.Context) error {
	var (
		resp *handler.CaptureResponse
		err  error
	)
	if server := ParseGlobalFlags(c).Server; server != "" {
		resp, err = captureRemote(c, server)
	} else {
		resp, err = captureLocal(c)
	}
	if err != nil {
		return err
	}

	if err := printResult(c, resp); err != nil {
		return err
	}
	if resp.Path == "" {
		return cli.Exit(fmt.Sprintf("capture %s: %s", resp.CorrelationID, resp.Outcome), 1)
	}
	return nil
}

func captureLocal(c *cli.Context) (*handler.CaptureResponse, error) {
	cfg, err := loadConfig(c, 0)
	if err != nil {
		return nil, err
	}
	if c.IsSet("timeout") {
		cfg.Capture.Timeout = c.Duration("timeout")
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	photos, err := photo.New(cfg.Photo, log)
	if err != nil {
		return nil, err
	}
	client, stopTLS, err := dialTransport(c.Context, cfg, log)
	if err != nil {
		return nil, err
	}
	defer stopTLS()
	defer client.Close()

	svc := newCaptureService(client, cfg, captureDeps{photos: photos}, log)
	if err := svc.Subscribe(c.Context); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	spin := startSpinner(c, "waiting for camera")
	out, err := svc.Capture(c.Context, service.CaptureRequest{})
	spin.Stop()
	if err != nil {
		return nil, err
	}
	resp := handler.NewCaptureResponse(out)
	return &resp, nil
}

func captureRemote(c *cli.Context, server string) (*handler.CaptureResponse, error) {
	timeout := connection.DefaultTimeout
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout") + 5*time.Second
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()

	spin := startSpinner(c, "waiting for "+server)
	defer spin.Stop()
	return connection.NewHTTPClient(server, timeout).Capture(ctx)
}

// startSpinner animates on stderr for table output only, so machine
// readable output stays clean.
func startSpinner(c *cli.Context, message string) *output.Spinner {
	spin := output.NewSpinner(c.App.ErrWriter, message)
	if format, _ := output.ParseFormat(ParseGlobalFlags(c).Output); format == output.FormatTable {
		spin.Start()
	}
	return spin
}
