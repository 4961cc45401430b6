package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/internal/export"
	"github.com/yndnr/gatecam/pkg/crypto/adaptive"
)

var brokerSchemes = map[string]bool{
	"tcp": true, "mqtt": true,
	"ssl": true, "tls": true, "mqtts": true,
	"ws": true, "wss": true,
}

// MemoryScheme selects the in-process broker, e.g. "memory://local". It
// only reaches components of the same process and is meant for dry runs.
const MemoryScheme = "memory"

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *Config) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	verifyBroker(&cfg.Broker, add)

	t := cfg.Topics
	if t.Command == "" || t.Start == "" || t.Chunk == "" || t.End == "" {
		add("topics: command, start, chunk and end are required")
	} else if len(map[string]bool{t.Command: true, t.Start: true, t.Chunk: true, t.End: true}) != 4 {
		add("topics: topic names must be distinct")
	}

	if cfg.Capture.Timeout <= 0 {
		add("capture.timeout must be positive")
	}

	if cfg.Photo.Dir == "" {
		add("photo.dir is required")
	}
	if cfg.Photo.EncryptionKey != "" {
		if _, err := adaptive.ParseKey(cfg.Photo.EncryptionKey); err != nil {
			add("photo.encryption_key: %v", err)
		}
	}

	switch cfg.Audit.Driver {
	case "", "sqlite":
		if cfg.Audit.Path == "" {
			add("audit.path is required for the sqlite driver")
		}
	case "badger":
		if cfg.Audit.Badger.Dir == "" {
			add("audit.badger.dir is required for the badger driver")
		}
	default:
		add("audit.driver %q is not one of sqlite, badger", cfg.Audit.Driver)
	}

	if cfg.Export.Enabled {
		if cfg.Export.Path == "" {
			add("export.path is required")
		}
		if err := export.ValidateTarget(cfg.Export.At); err != nil {
			add("export.at: %v", err)
		}
	}

	verifyAccess(&cfg.Access, add)

	if cfg.HTTP.Enabled {
		if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
			add("http.addr: %v", err)
		}
		for _, entry := range cfg.HTTP.CaptureAllowList {
			if net.ParseIP(entry) != nil {
				continue
			}
			if _, _, err := net.ParseCIDR(entry); err != nil {
				add("http.capture_allow_list: %q is neither an IP nor a CIDR", entry)
			}
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		add("log.format %q is not one of json, text", cfg.Log.Format)
	}

	return errors.Join(errs...)
}

func verifyBroker(b *BrokerSection, add func(string, ...any)) {
	u, err := url.Parse(b.URL)
	switch {
	case b.URL == "":
		add("broker.url is required")
	case err != nil:
		add("broker.url: %v", err)
	case u.Scheme == MemoryScheme:
	case !brokerSchemes[u.Scheme]:
		add("broker.url: unsupported scheme %q", u.Scheme)
	case u.Host == "":
		add("broker.url: missing host")
	}

	if b.QoS < 1 || b.QoS > 2 {
		add("broker.qos must be 1 or 2, got %d", b.QoS)
	}

	tls := b.TLS
	if (tls.CertFile == "") != (tls.KeyFile == "") {
		add("broker.tls: cert_file and key_file must be set together")
	}
	for name, path := range map[string]string{
		"ca_file":   tls.CAFile,
		"cert_file": tls.CertFile,
		"key_file":  tls.KeyFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			add("broker.tls.%s: %v", name, err)
		}
	}
}

func verifyAccess(a *AccessSection, add func(string, ...any)) {
	if !a.Enabled {
		return
	}
	if a.AuthorizedFile == "" {
		add("access.authorized_file is required")
	}
	if a.Secret == "" {
		add("access.secret is required")
	}
	if a.Reader == "" {
		add("access.reader is required")
	}
	if a.RelayDuration <= 0 {
		add("access.relay_duration must be positive")
	}
	if a.Cooldown < 0 {
		add("access.cooldown must not be negative")
	}
	switch a.Relay.Driver {
	case "", access.RelayNone:
	case access.RelaySysfs:
		if a.Relay.GPIORoot == "" || a.Relay.Pin < 0 {
			add("access.relay: gpio_root and a non-negative pin are required for sysfs")
		}
	default:
		add("access.relay.driver %q is not one of none, sysfs", a.Relay.Driver)
	}
}
