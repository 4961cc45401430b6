package config

import (
	"path/filepath"
	"time"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/internal/core/protocol"
	"github.com/yndnr/gatecam/internal/core/service"
	"github.com/yndnr/gatecam/internal/export"
	"github.com/yndnr/gatecam/internal/storage"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/storage/photo"
)

// Default configuration values.
const (
	DefaultDataDir   = "/var/lib/gatecam"
	DefaultBrokerURL = "ssl://localhost:8883"
	DefaultQoS       = 1
	DefaultHTTPAddr  = "127.0.0.1:8080"

	DefaultConnectTimeout       = 10 * time.Second
	DefaultKeepAlive            = 30 * time.Second
	DefaultMaxReconnectInterval = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration rooted at DefaultDataDir.
func Default() *Config {
	return DefaultIn(DefaultDataDir)
}

// DefaultIn returns the default configuration with all files under dataDir.
func DefaultIn(dataDir string) *Config {
	return &Config{
		Broker: BrokerSection{
			URL:                  DefaultBrokerURL,
			QoS:                  DefaultQoS,
			ConnectTimeout:       DefaultConnectTimeout,
			KeepAlive:            DefaultKeepAlive,
			MaxReconnectInterval: DefaultMaxReconnectInterval,
		},
		Topics: protocol.DefaultTopics(),
		Capture: CaptureSection{
			Timeout: service.DefaultCaptureTimeout,
		},
		Photo: photo.Config{
			Dir: filepath.Join(dataDir, "photos"),
		},
		Audit: audit.Config{
			Driver:       "sqlite",
			Path:         filepath.Join(dataDir, "rfid_log.db"),
			Badger:       storage.DefaultBadgerConfig(filepath.Join(dataDir, "audit")),
			WriteTimeout: audit.DefaultWriteTimeout,
		},
		Export: ExportSection{
			Enabled: true,
			Path:    filepath.Join(dataDir, "rfid_log_daily.csv"),
			At:      export.DefaultTarget,
		},
		Access: AccessSection{
			Enabled:        true,
			AuthorizedFile: filepath.Join(dataDir, "authorized_uids.json"),
			Reader:         "stdin",
			RelayDuration:  service.DefaultRelayDuration,
			Cooldown:       service.DefaultCooldown,
			Relay:          access.DefaultRelayConfig(),
		},
		HTTP: HTTPSection{
			Enabled: true,
			Addr:    DefaultHTTPAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
