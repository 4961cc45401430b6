package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Relay drivers.
const (
	RelayNone  = "none"
	RelaySysfs = "sysfs"
)

// RelayConfig selects and configures the relay driver.
type RelayConfig struct {
	// Driver is "sysfs" or "none".
	Driver string `koanf:"driver"`

	// GPIORoot is the sysfs GPIO class directory.
	GPIORoot string `koanf:"gpio_root"`

	// Pin is the BCM GPIO number driving the relay.
	Pin int `koanf:"pin"`

	// ActiveLow inverts the output level for relay boards energized by 0.
	ActiveLow bool `koanf:"active_low"`
}

// DefaultRelayConfig returns the configuration of the reference board.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Driver:   RelayNone,
		GPIORoot: "/sys/class/gpio",
		Pin:      17,
	}
}

// Pulser energizes a relay for a duration.
type Pulser interface {
	Pulse(ctx context.Context, d time.Duration) error
}

// NewRelay creates the relay selected by cfg.Driver.
func NewRelay(cfg RelayConfig, logger *slog.Logger) (Pulser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", RelayNone:
		return NoopRelay{logger: logger}, nil
	case RelaySysfs:
		return OpenSysfsRelay(cfg, logger)
	default:
		return nil, fmt.Errorf("access: unknown relay driver %q", cfg.Driver)
	}
}

// NoopRelay only logs pulses. It is used for dry runs without hardware.
type NoopRelay struct {
	logger *slog.Logger
}

// Pulse logs and returns immediately.
func (r NoopRelay) Pulse(_ context.Context, d time.Duration) error {
	if r.logger != nil {
		r.logger.Info("relay pulse (dry run)", "duration", d)
	}
	return nil
}

// SysfsRelay drives a GPIO line through the sysfs value file.
type SysfsRelay struct {
	value     string
	activeLow bool
	logger    *slog.Logger

	mu sync.Mutex
}

// OpenSysfsRelay exports the pin if needed, configures it as an output and
// releases the relay.
func OpenSysfsRelay(cfg RelayConfig, logger *slog.Logger) (*SysfsRelay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pinDir := filepath.Join(cfg.GPIORoot, "gpio"+strconv.Itoa(cfg.Pin))

	if _, err := os.Stat(pinDir); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(cfg.GPIORoot, "export"), []byte(strconv.Itoa(cfg.Pin)), 0o644); err != nil {
			return nil, fmt.Errorf("access: export gpio %d: %w", cfg.Pin, err)
		}
	}
	if err := os.WriteFile(filepath.Join(pinDir, "direction"), []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("access: gpio %d direction: %w", cfg.Pin, err)
	}

	r := &SysfsRelay{
		value:     filepath.Join(pinDir, "value"),
		activeLow: cfg.ActiveLow,
		logger:    logger,
	}
	if err := r.set(false); err != nil {
		return nil, err
	}
	logger.Info("relay ready", "pin", cfg.Pin, "active_low", cfg.ActiveLow)
	return r, nil
}

// Pulse energizes the relay for d. The relay is released when d elapses or
// ctx ends, whichever comes first. Overlapping pulses are serialized.
func (r *SysfsRelay) Pulse(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.set(true); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	return r.set(false)
}

func (r *SysfsRelay) set(on bool) error {
	level := on != r.activeLow
	v := "0"
	if level {
		v = "1"
	}
	if err := os.WriteFile(r.value, []byte(v), 0o644); err != nil {
		return fmt.Errorf("access: write gpio value: %w", err)
	}
	return nil
}
