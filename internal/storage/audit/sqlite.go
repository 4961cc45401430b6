package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
	ts             TEXT    NOT NULL,
	uid            TEXT    NOT NULL,
	authorized     INTEGER NOT NULL CHECK (authorized IN (0, 1)),
	photo          TEXT    NOT NULL,
	id             TEXT    NOT NULL DEFAULT '',
	correlation_id TEXT    NOT NULL DEFAULT ''
);
`

// addedColumns are the columns later than the four of the first
// controller's "logs" table, in the order they were introduced.
var addedColumns = []struct{ name, decl string }{
	{"id", "TEXT NOT NULL DEFAULT ''"},
	{"correlation_id", "TEXT NOT NULL DEFAULT ''"},
}

const selectColumns = `COALESCE(ts, ''), COALESCE(uid, ''), COALESCE(authorized, 0), COALESCE(photo, ''), id, correlation_id`

// SQLiteStore keeps audit records in the "logs" table. Log order is rowid
// order.
type SQLiteStore struct {
	db           *sql.DB
	writeTimeout time.Duration
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the audit database at path. A "logs" table
// left by an earlier controller is upgraded in place; its rows are kept.
func OpenSQLite(path string, writeTimeout time.Duration) (*SQLiteStore, error) {
	db, err := storage.OpenSQLite(path, storage.WithSchema(schema))
	if err != nil {
		return nil, domain.ErrAuditWrite.WithCause(err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, domain.ErrAuditWrite.WithCause(err)
	}
	return NewSQLiteStore(db, writeTimeout), nil
}

// migrate adds the columns missing from an existing "logs" table.
func migrate(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(logs)`)
	if err != nil {
		return fmt.Errorf("read logs columns: %w", err)
	}
	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("read logs columns: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("read logs columns: %w", err)
	}
	rows.Close()

	for _, col := range addedColumns {
		if have[col.name] {
			continue
		}
		if _, err := db.Exec(`ALTER TABLE logs ADD COLUMN ` + col.name + ` ` + col.decl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}

// NewSQLiteStore wraps an open database whose schema is already applied
// and migrated.
func NewSQLiteStore(db *sql.DB, writeTimeout time.Duration) *SQLiteStore {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &SQLiteStore{db: db, writeTimeout: writeTimeout}
}

// Record appends rec.
func (s *SQLiteStore) Record(ctx context.Context, rec domain.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (ts, uid, authorized, photo, id, correlation_id) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.FormattedTimestamp(), rec.SubjectID, rec.AuthorizedFlag(), rec.Outcome, rec.ID, rec.CorrelationID.String(),
	)
	if err != nil {
		return domain.ErrAuditWrite.WithCause(err)
	}
	return nil
}

// Each scans every record in rowid order.
func (s *SQLiteStore) Each(ctx context.Context, fn func(domain.AuditRecord) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM logs ORDER BY rowid`)
	if err != nil {
		return domain.ErrAuditRead.WithCause(err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.ErrAuditRead.WithCause(err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM logs ORDER BY rowid DESC LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, domain.ErrAuditRead.WithCause(err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrAuditRead.WithCause(err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (domain.AuditRecord, error) {
	var (
		rec        domain.AuditRecord
		ts, cid    string
		authorized int
	)
	if err := rows.Scan(&ts, &rec.SubjectID, &authorized, &rec.Outcome, &rec.ID, &cid); err != nil {
		return rec, domain.ErrAuditRead.WithCause(err)
	}
	rec.Timestamp = parseTimestamp(ts)
	rec.Authorized = authorized == 1
	rec.CorrelationID = domain.CorrelationID(cid)
	return rec, nil
}

// parseTimestamp accepts the current layout and the offset-less ISO form
// earlier controllers wrote. Unparseable values yield the zero time.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{domain.AuditTimestampLayout, time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
