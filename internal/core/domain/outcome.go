package domain

import "time"

// OutcomeKind tags the result of a capture attempt.
type OutcomeKind uint8

const (
	OutcomeUnspecified OutcomeKind = iota
	OutcomeSuccess
	OutcomeTimeout
	OutcomeEmptyPayload
	OutcomeLengthMismatch
)

// String returns the metric/log label of the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeEmptyPayload:
		return "empty_payload"
	case OutcomeLengthMismatch:
		return "length_mismatch"
	default:
		return "unspecified"
	}
}

// Outcome is the result of one capture attempt. Failures inside the
// protocol are expressed here and never returned as errors.
type Outcome struct {
	Kind          OutcomeKind
	CorrelationID CorrelationID

	// Encoded is the reassembled base64 text in offset order.
	Encoded string

	// Photo is the decoded image. For OutcomeLengthMismatch it may be partial.
	Photo []byte

	// Path is where the photo was persisted; empty when nothing was stored.
	Path string

	// Expected is the total length declared by the start message and Got
	// the length actually reassembled, both in encoded characters.
	Expected int
	Got      int

	// Chunks is the number of distinct offsets collected.
	Chunks int

	// DecodeErrors lists malformed fragments and payload decode failures.
	DecodeErrors []error

	// PersistErr is set when the photo could not be written.
	PersistErr error

	// TransportErr is set when the capture command could not be published.
	// Such attempts are reported as OutcomeTimeout.
	TransportErr error

	Elapsed time.Duration
}

// OK reports whether a photo was produced and stored.
func (o Outcome) OK() bool {
	return o.Path != ""
}

// Truncated reports whether the payload length disagreed with the declared total.
func (o Outcome) Truncated() bool {
	return o.Kind == OutcomeLengthMismatch
}

// AuditOutcome returns the value recorded in the audit log for this outcome.
func (o Outcome) AuditOutcome() string {
	switch {
	case o.Kind == OutcomeTimeout:
		return AuditOutcomeTimeout
	case o.Kind == OutcomeEmptyPayload:
		return AuditOutcomeEmpty
	case o.Path == "":
		return AuditOutcomeSaveFailed
	default:
		return o.Path
	}
}
