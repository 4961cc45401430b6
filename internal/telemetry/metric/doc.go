// Package metric provides Prometheus metrics for gatecam.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: the gatecam registry, its collectors and the HTTP handler
//
// Metrics include:
//
//   - Capture outcome counters and latency histogram
//   - Reassembly counters (chunks, stale messages, decode failures)
//   - Audit write failures and export runs
//   - Access decisions
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
