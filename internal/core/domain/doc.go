// Package domain defines the core domain models for gatecam.
//
// Domain models are plain values without IO dependencies:
//
//   - CorrelationID: token binding a capture command to the camera replies
//   - Outcome: tagged result of one capture attempt
//   - AuditRecord: immutable entry of the append-only audit log
//   - Errors: coded domain errors
package domain
