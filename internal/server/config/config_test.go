package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultIn(t.TempDir())
	cfg.Access.Secret = "door-secret"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Broker.QoS != DefaultQoS {
		t.Errorf("Broker.QoS = %d, want %d", cfg.Broker.QoS, DefaultQoS)
	}
	if cfg.Capture.Timeout != 15*time.Second {
		t.Errorf("Capture.Timeout = %v, want 15s", cfg.Capture.Timeout)
	}
	if cfg.Topics.Command != "esp32cam/capture" {
		t.Errorf("Topics.Command = %q", cfg.Topics.Command)
	}
	if cfg.Export.At != "23:50" {
		t.Errorf("Export.At = %q", cfg.Export.At)
	}
	if cfg.Access.RelayDuration != 2*time.Second || cfg.Access.Cooldown != 5*time.Second {
		t.Errorf("Access timings = %v / %v", cfg.Access.RelayDuration, cfg.Access.Cooldown)
	}
	if cfg.Photo.Dir != filepath.Join(DefaultDataDir, "photos") {
		t.Errorf("Photo.Dir = %q", cfg.Photo.Dir)
	}
	if cfg.Audit.Driver != "sqlite" || cfg.Audit.Path != filepath.Join(DefaultDataDir, "rfid_log.db") {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestVerify_Valid(t *testing.T) {
	if err := Verify(validConfig(t)); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_MemoryBroker(t *testing.T) {
	cfg := validConfig(t)
	cfg.Broker.URL = "memory://"
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no broker url", func(c *Config) { c.Broker.URL = "" }, "broker.url is required"},
		{"bad scheme", func(c *Config) { c.Broker.URL = "http://broker:80" }, "unsupported scheme"},
		{"qos 0", func(c *Config) { c.Broker.QoS = 0 }, "broker.qos"},
		{"cert without key", func(c *Config) { c.Broker.TLS.CertFile = "/x.crt" }, "set together"},
		{"missing ca", func(c *Config) { c.Broker.TLS.CAFile = "/nonexistent/ca.pem" }, "broker.tls.ca_file"},
		{"duplicate topics", func(c *Config) { c.Topics.End = c.Topics.Start }, "distinct"},
		{"empty topic", func(c *Config) { c.Topics.Chunk = "" }, "topics:"},
		{"zero timeout", func(c *Config) { c.Capture.Timeout = 0 }, "capture.timeout"},
		{"no photo dir", func(c *Config) { c.Photo.Dir = "" }, "photo.dir"},
		{"bad key", func(c *Config) { c.Photo.EncryptionKey = "abc" }, "photo.encryption_key"},
		{"bad driver", func(c *Config) { c.Audit.Driver = "mysql" }, "audit.driver"},
		{"badger without dir", func(c *Config) { c.Audit.Driver = "badger"; c.Audit.Badger.Dir = "" }, "audit.badger.dir"},
		{"bad export time", func(c *Config) { c.Export.At = "25:00" }, "export.at"},
		{"no secret", func(c *Config) { c.Access.Secret = "" }, "access.secret"},
		{"bad relay", func(c *Config) { c.Access.Relay.Driver = "lgpio" }, "access.relay.driver"},
		{"bad http addr", func(c *Config) { c.HTTP.Addr = "8080" }, "http.addr"},
		{"bad allowlist entry", func(c *Config) { c.HTTP.CaptureAllowList = []string{"10.0.0.0/8", "lan"} }, "http.capture_allow_list"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestVerify_DisabledSectionsSkipped(t *testing.T) {
	cfg := validConfig(t)
	cfg.Access.Enabled = false
	cfg.Access.Secret = ""
	cfg.Export.Enabled = false
	cfg.Export.At = "bogus"
	cfg.HTTP.Enabled = false
	cfg.HTTP.Addr = ""
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_ReportsAllProblems(t *testing.T) {
	cfg := validConfig(t)
	cfg.Broker.QoS = 5
	cfg.Log.Level = "loud"
	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "broker.qos") || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("Verify() error = %v, want both problems", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := validConfig(t)
	cfg.Broker.Password = "mqtt-password"
	cfg.Photo.EncryptionKey = strings.Repeat("ab", 32)

	s := Sanitize(cfg)
	if cfg.Broker.Password != "mqtt-password" {
		t.Error("original config modified")
	}
	if s.Broker.Password == cfg.Broker.Password || s.Access.Secret == cfg.Access.Secret ||
		s.Photo.EncryptionKey == cfg.Photo.EncryptionKey {
		t.Errorf("secrets not masked: %+v", s)
	}
	if !strings.HasPrefix(s.Broker.Password, "mq") || !strings.HasSuffix(s.Broker.Password, "rd") {
		t.Errorf("masked password = %q", s.Broker.Password)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"abc":       "****",
		"abcdefgh":  "ab****gh",
		"secret-12": "se*****12",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	for _, want := range []string{
		"broker.client_id",
		"broker.tls.ca_file",
		"topics.command",
		"photo.encryption_key",
		"audit.badger.gc_interval",
		"access.relay.active_low",
		"log.level",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("Keys() missing %q", want)
		}
	}
	if slices.Contains(keys, "broker.tls") {
		t.Error("Keys() should list leaves only")
	}
}

func TestToMap(t *testing.T) {
	m := ToMap(Sanitize(validConfig(t)))

	broker, ok := m["broker"].(map[string]any)
	if !ok {
		t.Fatalf("broker section = %T", m["broker"])
	}
	if broker["keep_alive"] != "30s" {
		t.Errorf("keep_alive = %v, want 30s", broker["keep_alive"])
	}
	if _, ok := broker["tls"].(map[string]any); !ok {
		t.Errorf("broker.tls = %T, want nested map", broker["tls"])
	}
	acc := m["access"].(map[string]any)
	if s, _ := acc["secret"].(string); strings.Contains(s, "door-secret") {
		t.Errorf("secret not masked: %q", s)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gatecam.yaml")
	content := `
broker:
  url: "tcp://127.0.0.1:1883"
capture:
  timeout: 20s
photo:
  dir: "` + filepath.Join(dir, "photos") + `"
audit:
  path: "` + filepath.Join(dir, "rfid_log.db") + `"
access:
  secret: "door-secret"
  relay:
    driver: none
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GATECAM_BROKER_CLIENT_ID", "door-1")
	t.Setenv("GATECAM_EXPORT_AT", "03:00")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Broker.URL != "tcp://127.0.0.1:1883" || cfg.Broker.ClientID != "door-1" {
		t.Errorf("Broker = %+v", cfg.Broker)
	}
	if cfg.Capture.Timeout != 20*time.Second {
		t.Errorf("Capture.Timeout = %v", cfg.Capture.Timeout)
	}
	if cfg.Export.At != "03:00" {
		t.Errorf("Export.At = %q", cfg.Export.At)
	}
	if cfg.Broker.QoS != DefaultQoS {
		t.Errorf("defaults lost: QoS = %d", cfg.Broker.QoS)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("GATECAM_BROKER_QOS", "7")
	if _, err := Load(""); err == nil {
		t.Error("Load() expected verification error")
	}
}

func TestRead_DoesNotVerify(t *testing.T) {
	t.Setenv("GATECAM_BROKER_QOS", "7")
	cfg, err := Read("", nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Broker.QoS != 7 {
		t.Errorf("QoS = %d, want 7", cfg.Broker.QoS)
	}
}

func TestToMQTTOptions(t *testing.T) {
	b := validConfig(t).Broker
	opts, err := ToMQTTOptions(b, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(opts.ClientID, "gatecam-") || len(opts.ClientID) != len("gatecam-")+12 {
		t.Errorf("generated ClientID = %q", opts.ClientID)
	}
	if opts.QoS != 1 || opts.URL != b.URL || opts.KeepAlive != b.KeepAlive {
		t.Errorf("opts = %+v", opts)
	}

	b.ClientID = "RPI_CLIENT"
	opts, _ = ToMQTTOptions(b, nil)
	if opts.ClientID != "RPI_CLIENT" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
}

func TestRead_OverridesWinOverEnv(t *testing.T) {
	t.Setenv("GATECAM_LOG_LEVEL", "warn")
	cfg, err := Read("", map[string]any{"log.level": "debug", "http.enabled": false})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.HTTP.Enabled {
		t.Error("HTTP.Enabled = true, want false")
	}
}
