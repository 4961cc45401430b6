package command

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/camera/emulator"
	"github.com/yndnr/gatecam/internal/infra/shutdown"
)

// EmulateCameraCommand returns the camera emulator command.
func EmulateCameraCommand() *cli.Command {
	return &cli.Command{
		Name:  "emulate-camera",
		Usage: "Answer capture commands with a fixed JPEG, for bench tests without a camera",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "JPEG file to send",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Base64 characters per chunk",
				Value: emulator.DefaultChunkSize,
			},
			&cli.BoolFlag{
				Name:  "shuffle",
				Usage: "Send chunks in random order",
			},
			&cli.IntFlag{
				Name:  "drop",
				Usage: "Omit every Nth chunk to provoke truncated photos",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Pause between messages",
			},
			&cli.BoolFlag{
				Name:  "silent",
				Usage: "Never answer, to provoke timeouts",
			},
			&cli.StringFlag{
				Name:  "client-id",
				Usage: "Broker client id (must differ from the daemon's)",
			},
		},
		Action: runEmulateCamera,
	}
}

func runEmulateCamera(c *cli.Context) error {
	image, err := os.ReadFile(c.String("image"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	cfg, err := loadConfig(c, 0)
	if err != nil {
		return err
	}
	// Reusing the daemon's client id would make the broker drop one of
	// the two connections.
	cfg.Broker.ClientID = c.String("client-id")

	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}

	client, stopTLS, err := dialTransport(c.Context, cfg, log)
	if err != nil {
		return err
	}

	em, err := emulator.New(client, image, emulator.Config{
		Topics:    cfg.Topics,
		ChunkSize: c.Int("chunk-size"),
		Shuffle:   c.Bool("shuffle"),
		Drop:      c.Int("drop"),
		Delay:     c.Duration("delay"),
		Silent:    c.Bool("silent"),
	}, log)
	if err != nil {
		client.Close()
		stopTLS()
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	if err := em.Start(ctx); err != nil {
		client.Close()
		stopTLS()
		return err
	}

	sh := shutdown.NewHandler(shutdown.DefaultTimeout, log)
	sh.OnShutdown("transport", func(context.Context) error {
		defer stopTLS()
		return client.Close()
	})
	sh.OnShutdown("camera emulator", func(context.Context) error {
		cancel()
		em.Wait()
		log.Info("camera emulator stopped", "served", em.Served())
		return nil
	})
	return sh.Wait(c.Context)
}
