package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Audit outcome markers used when no photo path is available.
const (
	AuditOutcomeTimeout    = "TIMEOUT"
	AuditOutcomeEmpty      = "EMPTY"
	AuditOutcomeSaveFailed = "SAVE_FAILED"
)

// AuditTimestampLayout is the ISO-8601 layout of persisted timestamps.
const AuditTimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// AuditRecord describes one capture attempt. Records are append-only and
// never modified after they are written.
type AuditRecord struct {
	// ID orders records in log order; it is a lowercase ULID.
	ID string `json:"id"`

	Timestamp     time.Time     `json:"ts"`
	SubjectID     string        `json:"uid"`
	Authorized    bool          `json:"authorized"`
	Outcome       string        `json:"photo"`
	CorrelationID CorrelationID `json:"correlation_id,omitempty"`
}

// NewAuditRecord creates a record stamped with the given time.
func NewAuditRecord(at time.Time, subjectID string, authorized bool, outcome string, cid CorrelationID) (AuditRecord, error) {
	id, err := ulid.New(ulid.Timestamp(at), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return AuditRecord{}, ErrAuditWrite.WithCause(err)
	}
	return AuditRecord{
		ID:            strings.ToLower(id.String()),
		Timestamp:     at,
		SubjectID:     subjectID,
		Authorized:    authorized,
		Outcome:       outcome,
		CorrelationID: cid,
	}, nil
}

// FormattedTimestamp returns the ISO-8601 form of the record time.
func (r AuditRecord) FormattedTimestamp() string {
	return r.Timestamp.Format(AuditTimestampLayout)
}

// AuthorizedFlag returns the 0|1 form used by the persisted schema.
func (r AuditRecord) AuthorizedFlag() int {
	if r.Authorized {
		return 1
	}
	return 0
}

// Subject identifies who triggered a capture and the access decision taken.
type Subject struct {
	ID         string
	Authorized bool
}
