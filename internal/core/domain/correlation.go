package domain

import (
	"fmt"
	"sync"
	"time"
)

// CorrelationLayout is the time layout of a correlation id. The camera
// firmware echoes it verbatim in the timestamp field of every reply.
const CorrelationLayout = "20060102_150405"

// CorrelationID binds one capture command to its asynchronous replies.
// The zero value matches nothing.
type CorrelationID string

// String returns the wire form of the id.
func (c CorrelationID) String() string {
	return string(c)
}

// IsZero reports whether the id is unset.
func (c CorrelationID) IsZero() bool {
	return c == ""
}

// Matches reports whether raw, as carried in an inbound message, refers to c.
func (c CorrelationID) Matches(raw string) bool {
	return c != "" && string(c) == raw
}

// CorrelationIDGenerator issues correlation ids from the wall clock at
// second resolution. Ids requested within the same second carry a
// sequence suffix so that consecutive attempts never share an id.
type CorrelationIDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last string
	seq  int
}

// NewCorrelationIDGenerator creates a generator. A nil clock uses time.Now.
func NewCorrelationIDGenerator(now func() time.Time) *CorrelationIDGenerator {
	if now == nil {
		now = time.Now
	}
	return &CorrelationIDGenerator{now: now}
}

// Next returns a fresh correlation id.
func (g *CorrelationIDGenerator) Next() CorrelationID {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.now().Format(CorrelationLayout)
	if base != g.last {
		g.last = base
		g.seq = 0
		return CorrelationID(base)
	}

	g.seq++
	return CorrelationID(fmt.Sprintf("%s_%d", base, g.seq))
}
