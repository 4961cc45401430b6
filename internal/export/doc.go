// Package export snapshots the audit log into a CSV file.
//
// Exporter writes the file on demand. Scheduler runs it once per calendar
// day when the wall clock reaches a configured minute. A target minute that
// passes while the process is down or stalled is not caught up.
package export
