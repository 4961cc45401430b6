package config

import (
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"

	"github.com/yndnr/gatecam/internal/transport/mqtt"
)

// ToMQTTOptions converts the broker section into transport options. An
// empty client id is replaced by a generated one.
func ToMQTTOptions(b BrokerSection, tlsConfig *tls.Config) (mqtt.Options, error) {
	clientID := b.ClientID
	if clientID == "" {
		generated, err := generateClientID()
		if err != nil {
			return mqtt.Options{}, fmt.Errorf("generate client id: %w", err)
		}
		clientID = generated
	}

	return mqtt.Options{
		URL:                  b.URL,
		ClientID:             clientID,
		Username:             b.Username,
		Password:             b.Password,
		QoS:                  byte(b.QoS),
		ConnectTimeout:       b.ConnectTimeout,
		KeepAlive:            b.KeepAlive,
		MaxReconnectInterval: b.MaxReconnectInterval,
		TLS:                  tlsConfig,
	}, nil
}

// generateClientID returns "gatecam-<12 hex chars>".
func generateClientID() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "gatecam-" + hex.EncodeToString(buf), nil
}
