package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage/audit"
)

func seedStore(t *testing.T) audit.Store {
	t.Helper()
	store, err := audit.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"), time.Second)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	at := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	records := []struct {
		uid        string
		authorized bool
		outcome    string
	}{
		{"413369794588", true, "/photos/photo_20250601_080000.jpg"},
		{"3208714727", false, domain.AuditOutcomeTimeout},
		{"413369794588", true, "a,b \"quoted\""},
	}
	for i, r := range records {
		rec, err := domain.NewAuditRecord(at.Add(time.Duration(i)*time.Minute), r.uid, r.authorized, r.outcome, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Record(context.Background(), rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	return store
}

func TestExporter_Export(t *testing.T) {
	store := seedStore(t)
	path := filepath.Join(t.TempDir(), "out", "rfid_log_daily.csv")
	e := NewExporter(store, path, nil)

	rows, err := e.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if rows != 3 {
		t.Errorf("rows = %d, want 3", rows)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"timestamp,uid,authorized,photo",
		"2025-06-01T08:00:00.000000Z,413369794588,1,/photos/photo_20250601_080000.jpg",
		"2025-06-01T08:01:00.000000Z,3208714727,0,TIMEOUT",
		`2025-06-01T08:02:00.000000Z,413369794588,1,"a,b ""quoted"""`,
		"",
	}, "\n")
	if string(data) != want {
		t.Errorf("csv =\n%s\nwant\n%s", data, want)
	}
}

func TestExporter_EmptyLog(t *testing.T) {
	store, err := audit.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	path := filepath.Join(t.TempDir(), "out.csv")
	rows, err := NewExporter(store, path, nil).Export(context.Background())
	if err != nil || rows != 0 {
		t.Fatalf("Export() = %d, %v", rows, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "timestamp,uid,authorized,photo\n" {
		t.Errorf("csv = %q", data)
	}
}

type failingReader struct{}

func (failingReader) Each(context.Context, func(domain.AuditRecord) error) error {
	return errors.New("disk gone")
}

func (failingReader) Recent(context.Context, int) ([]domain.AuditRecord, error) {
	return nil, nil
}

func TestExporter_ReadFailureKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("previous\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewExporter(failingReader{}, path, nil).Export(context.Background()); err == nil {
		t.Fatal("Export() expected error")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous\n" {
		t.Errorf("file = %q, want previous content", data)
	}
}
