package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg

	sanitized.Broker.Password = maskSecret(sanitized.Broker.Password)
	sanitized.Photo.EncryptionKey = maskSecret(sanitized.Photo.EncryptionKey)
	sanitized.Access.Secret = maskSecret(sanitized.Access.Secret)

	return &sanitized
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
