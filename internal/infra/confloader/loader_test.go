package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Broker struct {
		URL      string `koanf:"url"`
		ClientID string `koanf:"client_id"`
		QoS      int    `koanf:"qos"`
	} `koanf:"broker"`
	Capture struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"capture"`
	Export struct {
		Enabled bool   `koanf:"enabled"`
		At      string `koanf:"at"`
	} `koanf:"export"`
}

var testKeys = []string{"broker.url", "broker.client_id", "broker.qos", "capture.timeout", "export.enabled", "export.at"}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatecam.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/gatecam.yaml"))
	if l.envPrefix != "TEST_" || l.filePath != "/etc/gatecam.yaml" {
		t.Errorf("options not applied: prefix=%q file=%q", l.envPrefix, l.filePath)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
broker:
  url: "ssl://broker.local:8883"
  qos: 2
export:
  enabled: true
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.k.String("broker.url"); got != "ssl://broker.local:8883" {
		t.Errorf("broker.url = %q", got)
	}
	if got := l.k.Int("broker.qos"); got != 2 {
		t.Errorf("broker.qos = %d", got)
	}
	if !l.k.Bool("export.enabled") {
		t.Error("export.enabled should be true")
	}

	if err := l.LoadFile("/nonexistent/gatecam.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestLoader_LoadEnv_KnownKeys(t *testing.T) {
	t.Setenv("GATECAM_BROKER_CLIENT_ID", "door-1")
	t.Setenv("GATECAM_CAPTURE_TIMEOUT", "20s")
	t.Setenv("GATECAM_UNKNOWN_SOME_KEY", "x")

	l := NewLoader(WithKnownKeys(testKeys))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.k.String("broker.client_id"); got != "door-1" {
		t.Errorf("broker.client_id = %q, want door-1", got)
	}
	if got := l.k.String("capture.timeout"); got != "20s" {
		t.Errorf("capture.timeout = %q", got)
	}
	if got := l.k.String("unknown.some.key"); got != "x" {
		t.Errorf("unknown keys should fall back to dotted form, got %q", got)
	}
}

func TestLoader_LoadEnv_WithoutKnownKeys(t *testing.T) {
	t.Setenv("MYAPP_BROKER_CLIENT_ID", "door-1")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if got := l.k.String("broker.client.id"); got != "door-1" {
		t.Errorf("broker.client.id = %q", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
broker:
  url: "ssl://from-file:8883"
  client_id: "file-id"
capture:
  timeout: 10s
`)
	t.Setenv("GATECAM_BROKER_URL", "ssl://from-env:8883")

	l := NewLoader(WithConfigFile(path), WithKnownKeys(testKeys))

	var cfg testConfig
	cfg.Export.At = "23:50"
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Broker.URL != "ssl://from-env:8883" {
		t.Errorf("URL = %q, env should override file", cfg.Broker.URL)
	}
	if cfg.Broker.ClientID != "file-id" {
		t.Errorf("ClientID = %q", cfg.Broker.ClientID)
	}
	if cfg.Capture.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Capture.Timeout)
	}
	if cfg.Export.At != "23:50" {
		t.Errorf("pre-set value lost: At = %q", cfg.Export.At)
	}
}

func TestLoader_Load_OverridesWin(t *testing.T) {
	path := writeConfig(t, `
broker:
  qos: 1
export:
  enabled: true
`)
	t.Setenv("GATECAM_BROKER_QOS", "2")

	l := NewLoader(WithConfigFile(path), WithKnownKeys(testKeys), WithOverrides(map[string]any{
		"broker.qos":     0,
		"export.enabled": false,
	}))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Broker.QoS != 0 {
		t.Errorf("QoS = %d, override should beat file and env", cfg.Broker.QoS)
	}
	if cfg.Export.Enabled {
		t.Error("export.enabled override not applied")
	}
}

func TestMapProvider_Read_Nests(t *testing.T) {
	m, err := mapProvider{"log.level": "debug", "export.enabled": true}.Read()
	if err != nil {
		t.Fatal(err)
	}
	logSection, ok := m["log"].(map[string]any)
	if !ok || logSection["level"] != "debug" {
		t.Errorf("Read() = %v, want nested log.level", m)
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := mapProvider(nil).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}
