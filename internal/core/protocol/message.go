package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/yndnr/gatecam/internal/core/domain"
)

// Message is a decoded inbound message.
type Message struct {
	Kind          Kind
	CorrelationID string

	// Total is set for KindStart.
	Total int

	// Offset and Data are set for KindChunk.
	Offset int
	Data   string
}

type wireMessage struct {
	Timestamp *string `json:"timestamp"`
	Total     *looseInt `json:"total,omitempty"`
	Offset    *looseInt `json:"offset,omitempty"`
	Data      *string   `json:"data,omitempty"`
}

// looseInt accepts a JSON integer or a string holding one.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := strconv.Atoi(string(bytes.TrimSpace(b)))
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*n = looseInt(v)
	return nil
}

// Decode parses a payload received on topic. Errors are *domain.DomainError
// values with code ErrMessageMalformed or ErrUnknownTopic.
func (t Topics) Decode(topic string, payload []byte) (Message, error) {
	kind := t.KindOf(topic)
	if kind == KindUnknown {
		return Message{}, domain.ErrUnknownTopic.WithDetails(topic)
	}

	var w wireMessage
	if err := json.Unmarshal(payload, &w); err != nil {
		return Message{}, domain.ErrMessageMalformed.WithDetails(kind.String()).WithCause(err)
	}
	if w.Timestamp == nil {
		return Message{}, domain.ErrMessageMalformed.WithDetails(kind.String() + ": missing timestamp")
	}

	msg := Message{Kind: kind, CorrelationID: *w.Timestamp}

	switch kind {
	case KindStart:
		if w.Total != nil {
			msg.Total = int(*w.Total)
		}
		if msg.Total < 0 {
			return Message{}, domain.ErrMessageMalformed.WithDetails(fmt.Sprintf("start: negative total %d", msg.Total))
		}
	case KindChunk:
		if w.Offset == nil || w.Data == nil {
			return Message{}, domain.ErrMessageMalformed.WithDetails("chunk: missing offset or data")
		}
		if *w.Offset < 0 {
			return Message{}, domain.ErrMessageMalformed.WithDetails(fmt.Sprintf("chunk: negative offset %d", *w.Offset))
		}
		msg.Offset = int(*w.Offset)
		msg.Data = *w.Data
	}

	return msg, nil
}

// CommandPayload returns the capture command body for id.
func CommandPayload(id domain.CorrelationID) []byte {
	return []byte(id.String())
}

// EncodeStart builds a start message.
func EncodeStart(id string, total int) ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		Total     int    `json:"total"`
	}{id, total})
}

// EncodeChunk builds a chunk message.
func EncodeChunk(id string, offset int, data string) ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
		Offset    int    `json:"offset"`
		Data      string `json:"data"`
	}{id, offset, data})
}

// EncodeEnd builds an end message.
func EncodeEnd(id string) ([]byte, error) {
	return json.Marshal(struct {
		Timestamp string `json:"timestamp"`
	}{id})
}
