package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose string values are replaced entirely.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"hmac",
	"private_key",
	"encryption_key",
}

// Keys whose values are card UIDs; these are partially masked.
var uidKeys = []string{
	"uid",
	"card_uid",
	"subject_id",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive rewrites an attribute whose key marks it as a secret or
// a card UID.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if isUIDKey(a.Key) {
			return slog.String(a.Key, MaskUID(strVal))
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// MaskUID keeps the first and last two characters of a card UID.
// UIDs of six characters or fewer are masked completely.
func MaskUID(uid string) string {
	if len(uid) <= 6 {
		return strings.Repeat("*", len(uid))
	}
	return uid[:2] + strings.Repeat("*", len(uid)-4) + uid[len(uid)-2:]
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

func isUIDKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, k := range uidKeys {
		if keyLower == k {
			return true
		}
	}
	return false
}
