// Package transport defines the publish/subscribe client gatecam talks to
// its camera through.
//
// Implementations deliver inbound messages on their own goroutine, never on
// the goroutine that called Publish. Subpackages:
//
//   - mqtt: paho based client with mutual TLS, reconnect and re-subscription
//   - memory: in-process broker for tests and dry runs
package transport
