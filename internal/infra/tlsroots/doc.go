// Package tlsroots builds the TLS configuration gatecam uses to reach its
// MQTT broker.
//
//   - roots.go: CA pool loading and the client tls.Config
//   - watcher.go: client certificate hot-reload via fsnotify
//
// The CA pool defaults to the system roots. When a client certificate is
// configured, the returned config serves it through GetClientCertificate
// so a rotated certificate is picked up on the next reconnect.
package tlsroots
