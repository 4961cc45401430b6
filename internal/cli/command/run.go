package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/internal/camera/emulator"
	"github.com/yndnr/gatecam/internal/core/service"
	"github.com/yndnr/gatecam/internal/export"
	"github.com/yndnr/gatecam/internal/infra/buildinfo"
	"github.com/yndnr/gatecam/internal/infra/confloader"
	"github.com/yndnr/gatecam/internal/infra/shutdown"
	"github.com/yndnr/gatecam/internal/server/config"
	"github.com/yndnr/gatecam/internal/server/httpserver"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/storage/photo"
	"github.com/yndnr/gatecam/internal/telemetry/logger"
	"github.com/yndnr/gatecam/internal/telemetry/metric"
	"github.com/yndnr/gatecam/internal/transport"
	"github.com/yndnr/gatecam/pkg/uidhash"
)

// RunCommand returns the daemon command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start the access loop, the export scheduler and the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "emulate-camera",
				Usage: "Answer capture commands in-process with this JPEG (bench setups)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for all components to stop",
				Value: shutdown.DefaultTimeout,
			},
		},
		Action: runDaemon,
	}
}

func runDaemon(c *cli.Context) error {
	cfg, err := loadConfig(c, needAccess|needExport|needHTTP)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	log.Info("starting gatecam",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", c.String("config"))

	d := &daemon{
		cfg:      cfg,
		log:      log,
		metrics:  metric.NewRegistry(),
		shutdown: shutdown.NewHandler(c.Duration("shutdown-timeout"), log),
	}
	if err := d.start(c.Context, c.String("config"), c.String("emulate-camera"), c.IsSet("log-level")); err != nil {
		d.abort()
		return err
	}

	log.Info("gatecam started")
	if err := d.shutdown.Wait(c.Context); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("gatecam stopped")
	return nil
}

// daemon holds the running components of `gatecam run`.
type daemon struct {
	cfg      *config.Config
	log      *slog.Logger
	metrics  *metric.Registry
	shutdown *shutdown.Handler

	workers errgroup.Group
}

// start brings components up in dependency order. Each registers its
// shutdown hook as soon as it exists, so hooks run in reverse: HTTP
// server, scheduler, access loop, transport, audit store.
func (d *daemon) start(ctx context.Context, configPath, emulateImage string, levelPinned bool) error {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(d.log))
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	d.shutdown.OnShutdown("file watcher", func(context.Context) error { return watcher.Stop() })
	if configPath != "" && !levelPinned {
		if err := d.watchLogLevel(watcher, configPath); err != nil {
			return err
		}
	}

	store, err := audit.Open(d.cfg.Audit, d.log)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	d.shutdown.OnShutdown("audit store", func(context.Context) error { return store.Close() })

	photos, err := photo.New(d.cfg.Photo, d.log)
	if err != nil {
		return fmt.Errorf("photo store: %w", err)
	}

	client, stopTLS, err := dialTransport(ctx, d.cfg, d.log)
	if err != nil {
		return err
	}
	d.shutdown.OnShutdown("transport", func(context.Context) error {
		defer stopTLS()
		return client.Close()
	})

	if emulateImage != "" {
		if err := d.startEmulator(ctx, client, emulateImage); err != nil {
			return err
		}
	}

	capture := newCaptureService(client, d.cfg, captureDeps{photos: photos, audit: store, metrics: d.metrics}, d.log)
	if err := capture.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Workers are waited for after every component below was told to stop.
	d.shutdown.OnShutdown("workers", func(context.Context) error { return d.workers.Wait() })

	if d.cfg.Access.Enabled {
		if err := d.startAccess(ctx, watcher, capture); err != nil {
			return err
		}
	}
	if d.cfg.Export.Enabled {
		if err := d.startScheduler(ctx, store); err != nil {
			return err
		}
	}
	watcher.StartAsync()

	if d.cfg.HTTP.Enabled {
		status, _ := client.(transport.Status)
		return d.startHTTP(capture, store, status)
	}
	return nil
}

// abort stops whatever start managed to bring up.
func (d *daemon) abort() {
	d.shutdown.Trigger("startup failed")
	if err := d.shutdown.Wait(context.Background()); err != nil {
		d.log.Warn("cleanup after failed start", "error", err)
	}
}

// worker runs fn until its stop hook cancels it. A failure triggers the
// shutdown of the whole process.
func (d *daemon) worker(ctx context.Context, name string, fn func(context.Context) error) {
	wctx, cancel := context.WithCancel(ctx)
	d.shutdown.OnShutdown(name, func(context.Context) error {
		cancel()
		return nil
	})
	d.workers.Go(func() error {
		if err := fn(wctx); err != nil {
			d.log.Error("component failed", "component", name, "error", err)
			d.shutdown.Trigger(name + " failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	})
}

func (d *daemon) watchLogLevel(w *confloader.Watcher, path string) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.OnChange(func(changed string) {
		if abs, err := filepath.Abs(changed); err != nil || abs != target {
			return
		}
		cfg, err := config.Read(path, nil)
		if err != nil {
			d.log.Warn("config reload failed", "error", err)
			return
		}
		before := logger.GetLevel()
		logger.SetLevel(cfg.Log.Level)
		if after := logger.GetLevel(); after != before {
			d.log.Info("log level changed", "from", before, "to", after)
		}
	})
	return w.Watch(path)
}

func (d *daemon) startEmulator(ctx context.Context, client transport.Client, imagePath string) error {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("emulator image: %w", err)
	}
	em, err := emulator.New(client, image, emulator.Config{Topics: d.cfg.Topics}, d.log)
	if err != nil {
		return err
	}
	ectx, cancel := context.WithCancel(ctx)
	if err := em.Start(ectx); err != nil {
		cancel()
		return err
	}
	d.shutdown.OnShutdown("camera emulator", func(context.Context) error {
		cancel()
		em.Wait()
		return nil
	})
	return nil
}

func (d *daemon) startAccess(ctx context.Context, watcher *confloader.Watcher, capture *service.CaptureService) error {
	ac := d.cfg.Access
	hasher, err := uidhash.New([]byte(ac.Secret))
	if err != nil {
		return err
	}

	allow, err := access.LoadAllowlist(ac.AuthorizedFile, hasher, d.log)
	if errors.Is(err, os.ErrNotExist) {
		d.log.Warn("allowlist missing, starting with no authorized cards; use `gatecam enroll`",
			"path", ac.AuthorizedFile)
		if _, err = access.Enroll(ac.AuthorizedFile, hasher, nil, false); err == nil {
			allow, err = access.LoadAllowlist(ac.AuthorizedFile, hasher, d.log)
		}
	}
	if err != nil {
		return err
	}
	if err := allow.Watch(watcher); err != nil {
		return fmt.Errorf("watch allowlist: %w", err)
	}

	src, err := openCardSource(ac.Reader)
	if err != nil {
		return err
	}
	relay, err := access.NewRelay(ac.Relay, d.log)
	if err != nil {
		src.Close()
		return err
	}

	svc := service.NewAccessService(access.NewLineReader(src), allow, relay, capture,
		service.AccessConfig{RelayDuration: ac.RelayDuration, Cooldown: ac.Cooldown},
		d.metrics, d.log)

	d.worker(ctx, "access loop", func(ctx context.Context) error {
		defer src.Close()
		if err := svc.Run(ctx); err != nil {
			return err
		}
		if ctx.Err() == nil {
			d.log.Warn("card reader closed; no further card reads", "reader", ac.Reader)
		}
		return nil
	})
	return nil
}

// openCardSource opens the line source of the card reader.
func openCardSource(reader string) (io.ReadCloser, error) {
	if reader == "stdin" || reader == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(reader)
	if err != nil {
		return nil, fmt.Errorf("card reader: %w", err)
	}
	return f, nil
}

func (d *daemon) startScheduler(ctx context.Context, store audit.Reader) error {
	exporter := export.NewExporter(store, d.cfg.Export.Path, d.log)
	sched, err := export.NewScheduler(exporter, d.cfg.Export.At,
		export.WithMetrics(d.metrics),
		export.WithLogger(d.log))
	if err != nil {
		return err
	}
	d.worker(ctx, "export scheduler", sched.Run)
	return nil
}

func (d *daemon) startHTTP(capture *service.CaptureService, store audit.Reader, status transport.Status) error {
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Capture:          capture,
		Audit:            store,
		Transport:        status,
		Metrics:          d.metrics,
		Logger:           d.log,
		CaptureAllowList: d.cfg.HTTP.CaptureAllowList,
	})

	ln, err := net.Listen("tcp", d.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	srv := httpserver.New(d.cfg.HTTP.Addr, router, d.log)
	d.shutdown.OnShutdown("http server", srv.Shutdown)

	d.workers.Go(func() error {
		d.log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil {
			d.log.Error("HTTP server failed", "error", err)
			d.shutdown.Trigger("http server failed")
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return nil
}
