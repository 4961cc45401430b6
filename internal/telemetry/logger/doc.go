// Package logger builds the slog loggers gatecam components receive.
//
//   - logger.go: handler construction, the shared runtime level, and the
//     handler adding context ids to records
//   - context.go: request and correlation ids carried in a context
//   - redact.go: secret redaction and card UID masking
//
// Components take a *slog.Logger and log with the Context variants where a
// context is at hand; the ids it carries then appear on every record.
package logger
