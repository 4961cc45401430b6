package audit

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
)

var (
	recordPrefix = []byte("audit/")
	sequenceKey  = []byte("meta/audit-seq")
)

// BadgerStore keeps JSON audit records under "audit/<seq>" keys, where seq
// is a big-endian uint64 from a persisted Badger sequence, so key order is
// log order.
type BadgerStore struct {
	engine       *storage.BadgerEngine
	writeTimeout time.Duration

	mu  sync.Mutex
	seq *badger.Sequence
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore takes ownership of engine; Close closes it.
func NewBadgerStore(engine *storage.BadgerEngine, writeTimeout time.Duration) (*BadgerStore, error) {
	seq, err := engine.Sequence(sequenceKey, 64)
	if err != nil {
		engine.Close()
		return nil, domain.ErrAuditWrite.WithCause(err)
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &BadgerStore{engine: engine, writeTimeout: writeTimeout, seq: seq}, nil
}

func recordKey(n uint64) []byte {
	key := make([]byte, len(recordPrefix)+8)
	copy(key, recordPrefix)
	binary.BigEndian.PutUint64(key[len(recordPrefix):], n)
	return key
}

// Record appends rec.
func (s *BadgerStore) Record(ctx context.Context, rec domain.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	value, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrAuditWrite.WithCause(err)
	}

	// The sequence and the write share one lock so keys land in call order.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		return domain.ErrAuditWrite.WithCause(storage.ErrClosed)
	}
	n, err := s.seq.Next()
	if err != nil {
		return domain.ErrAuditWrite.WithCause(err)
	}
	if err := ctx.Err(); err != nil {
		return domain.ErrAuditWrite.WithCause(err)
	}
	if err := s.engine.Set(ctx, recordKey(n), value); err != nil {
		return domain.ErrAuditWrite.WithCause(err)
	}
	return nil
}

// Each scans every record in key order.
func (s *BadgerStore) Each(ctx context.Context, fn func(domain.AuditRecord) error) error {
	var fnErr error
	err := s.engine.Scan(ctx, recordPrefix, func(_, value []byte) bool {
		var rec domain.AuditRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			fnErr = domain.ErrAuditRead.WithCause(err)
			return false
		}
		if err := fn(rec); err != nil {
			fnErr = err
			return false
		}
		return true
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return domain.ErrAuditRead.WithCause(err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *BadgerStore) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	limit = clampLimit(limit)
	out := make([]domain.AuditRecord, 0, limit)

	var decodeErr error
	err := s.engine.ScanReverse(ctx, recordPrefix, func(_, value []byte) bool {
		var rec domain.AuditRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			decodeErr = err
			return false
		}
		out = append(out, rec)
		return len(out) < limit
	})
	if err = errors.Join(err, decodeErr); err != nil {
		return nil, domain.ErrAuditRead.WithCause(err)
	}
	return out, nil
}

// Close releases the sequence and closes the engine.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	seq := s.seq
	s.seq = nil
	s.mu.Unlock()

	var err error
	if seq != nil {
		err = seq.Release()
	}
	return errors.Join(err, s.engine.Close())
}
