package config

import (
	"time"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/internal/core/protocol"
	"github.com/yndnr/gatecam/internal/infra/tlsroots"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/internal/storage/photo"
)

// Config is the root configuration.
type Config struct {
	Broker  BrokerSection   `koanf:"broker"`
	Topics  protocol.Topics `koanf:"topics"`
	Capture CaptureSection  `koanf:"capture"`
	Photo   photo.Config    `koanf:"photo"`
	Audit   audit.Config    `koanf:"audit"`
	Export  ExportSection   `koanf:"export"`
	Access  AccessSection   `koanf:"access"`
	HTTP    HTTPSection     `koanf:"http"`
	Log     LogSection      `koanf:"log"`
}

// BrokerSection configures the MQTT connection.
type BrokerSection struct {
	// URL is e.g. "ssl://broker.local:8883".
	URL string `koanf:"url"`

	// ClientID must be unique per broker. Empty generates one at startup.
	ClientID string `koanf:"client_id"`

	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// QoS for publishes and subscriptions (1 or 2).
	QoS int `koanf:"qos"`

	ConnectTimeout       time.Duration `koanf:"connect_timeout"`
	KeepAlive            time.Duration `koanf:"keep_alive"`
	MaxReconnectInterval time.Duration `koanf:"max_reconnect_interval"`

	// TLS configures CA pinning and the client certificate.
	TLS tlsroots.ClientOptions `koanf:"tls"`
}

// CaptureSection configures the capture protocol.
type CaptureSection struct {
	// Timeout bounds the wait for the camera's end message.
	Timeout time.Duration `koanf:"timeout"`
}

// ExportSection configures the daily CSV export.
type ExportSection struct {
	Enabled bool `koanf:"enabled"`

	// Path is the CSV file, replaced on every run.
	Path string `koanf:"path"`

	// At is the local "HH:MM" of the daily run.
	At string `koanf:"at"`
}

// AccessSection configures the card reader loop.
type AccessSection struct {
	Enabled bool `koanf:"enabled"`

	// AuthorizedFile is the JSON array of UID digests.
	AuthorizedFile string `koanf:"authorized_file"`

	// Secret is the HMAC key UIDs are hashed with.
	Secret string `koanf:"secret"`

	// Reader is "stdin" or the path of a character device emitting one
	// UID per line.
	Reader string `koanf:"reader"`

	RelayDuration time.Duration `koanf:"relay_duration"`
	Cooldown      time.Duration `koanf:"cooldown"`

	Relay access.RelayConfig `koanf:"relay"`
}

// HTTPSection configures the operator HTTP server.
type HTTPSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// CaptureAllowList restricts POST /v1/captures to these IPs or CIDRs.
	// Empty allows every client that can reach Addr.
	CaptureAllowList []string `koanf:"capture_allow_list"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
