package storage

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")

	db, err := OpenSQLite(path, WithSchema(`CREATE TABLE t (v TEXT)`))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	if _, err := db.Exec(`INSERT INTO t (v) VALUES ('x')`); err != nil {
		t.Errorf("schema not applied: %v", err)
	}
}

func TestOpenSQLite_Memory(t *testing.T) {
	db, err := OpenSQLite(":memory:", WithSchema(`CREATE TABLE t (v TEXT)`), WithBusyTimeout(100))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO t (v) VALUES ('x')`); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil || n != 1 {
		t.Errorf("count = %d, %v", n, err)
	}
}

func TestOpenSQLite_BadSchema(t *testing.T) {
	if _, err := OpenSQLite(":memory:", WithSchema(`NOT SQL`)); err == nil {
		t.Error("OpenSQLite() expected schema error")
	}
}
