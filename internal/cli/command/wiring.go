package command

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/core/service"
	"github.com/yndnr/gatecam/internal/infra/tlsroots"
	"github.com/yndnr/gatecam/internal/server/config"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/storage/photo"
	"github.com/yndnr/gatecam/internal/telemetry/logger"
	"github.com/yndnr/gatecam/internal/telemetry/metric"
	"github.com/yndnr/gatecam/internal/transport"
	"github.com/yndnr/gatecam/internal/transport/memory"
	"github.com/yndnr/gatecam/internal/transport/mqtt"
)

// Section switches for loadConfig. Commands turn off the sections they
// do not run so that those are not verified.
const (
	needAccess = 1 << iota
	needExport
	needHTTP
)

// loadConfig reads --config, applies --log-level and verifies the result.
func loadConfig(c *cli.Context, need int) (*config.Config, error) {
	overrides := flagOverrides(c)
	if need&needAccess == 0 {
		overrides["access.enabled"] = false
	}
	if need&needExport == 0 {
		overrides["export.enabled"] = false
	}
	if need&needHTTP == 0 {
		overrides["http.enabled"] = false
	}
	cfg, err := config.Read(ParseGlobalFlags(c).Config, overrides)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 2)
	}
	return cfg, nil
}

// flagOverrides maps global flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if level := ParseGlobalFlags(c).LogLevel; level != "" {
		overrides["log.level"] = level
	}
	return overrides
}

// newLogger builds the process logger from the log section and installs
// it as the default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(l)
	return l, nil
}

// usesMemoryBroker reports whether broker.url selects the in-process broker.
func usesMemoryBroker(cfg *config.Config) bool {
	u, err := url.Parse(cfg.Broker.URL)
	return err == nil && u.Scheme == config.MemoryScheme
}

// dialTransport connects to the configured broker. The returned stop
// function releases what the connection needs besides the client itself,
// such as the client certificate watcher.
func dialTransport(ctx context.Context, cfg *config.Config, log *slog.Logger) (transport.Client, func(), error) {
	if usesMemoryBroker(cfg) {
		log.Warn("using the in-process broker; only this process can answer captures")
		return memory.New(log), func() {}, nil
	}

	var (
		tlsConfig   *tls.Config
		certWatcher *tlsroots.Watcher
		err         error
	)
	if secureScheme(cfg.Broker.URL) || cfg.Broker.TLS.Enabled() {
		tlsConfig, certWatcher, err = tlsroots.ClientConfig(cfg.Broker.TLS, log)
		if err != nil {
			return nil, nil, fmt.Errorf("broker tls: %w", err)
		}
	}
	stop := func() {
		if certWatcher != nil {
			certWatcher.Stop()
		}
	}

	opts, err := config.ToMQTTOptions(cfg.Broker, tlsConfig)
	if err != nil {
		stop()
		return nil, nil, err
	}
	mqtt.InstallLogger(log, strings.EqualFold(cfg.Log.Level, "debug"))

	client, err := mqtt.Dial(ctx, opts, log)
	if err != nil {
		stop()
		return nil, nil, err
	}
	if certWatcher != nil {
		certWatcher.StartAsync()
	}
	log.Info("broker connected", "url", cfg.Broker.URL, "client_id", opts.ClientID)
	return client, stop, nil
}

func secureScheme(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ssl", "tls", "mqtts", "wss":
		return true
	}
	return false
}

// captureDeps are the optional collaborators of a CaptureService.
type captureDeps struct {
	photos  *photo.Store
	audit   audit.Sink
	metrics *metric.Registry
}

func newCaptureService(client transport.Client, cfg *config.Config, deps captureDeps, log *slog.Logger) *service.CaptureService {
	opts := []service.CaptureOption{service.WithLogger(log)}
	if deps.photos != nil {
		opts = append(opts, service.WithPhotoStore(deps.photos))
	}
	if deps.audit != nil {
		opts = append(opts, service.WithAuditSink(deps.audit))
	}
	if deps.metrics != nil {
		opts = append(opts, service.WithMetrics(deps.metrics))
	}
	return service.NewCaptureService(client, service.CaptureConfig{
		Topics:  cfg.Topics,
		Timeout: cfg.Capture.Timeout,
	}, opts...)
}
