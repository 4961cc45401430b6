package config

import (
	"fmt"

	"github.com/yndnr/gatecam/internal/infra/confloader"
)

// Load reads the configuration and verifies it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path, nil)
	if err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Read builds the configuration from defaults, the optional YAML file at
// path, GATECAM_ environment variables and overrides (dotted keys, for
// command line flags) without verifying it.
func Read(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithKnownKeys(Keys()),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
