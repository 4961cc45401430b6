// Package mqtt adapts github.com/eclipse/paho.mqtt.golang to
// transport.Client.
//
// The client connects once at Dial and from then on owns reconnection:
// paho reconnects with backoff and every registered subscription is
// re-issued from the OnConnect hook, so callers subscribe exactly once.
// Publishes and subscriptions use QoS 1 unless configured higher.
package mqtt
