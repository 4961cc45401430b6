package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
)

func backends(t *testing.T) map[string]func(t *testing.T, dir string) Store {
	t.Helper()
	return map[string]func(t *testing.T, dir string) Store{
		"sqlite": func(t *testing.T, dir string) Store {
			s, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "rfid_log.db")}, nil)
			if err != nil {
				t.Fatalf("Open(sqlite) error = %v", err)
			}
			return s
		},
		"badger": func(t *testing.T, dir string) Store {
			cfg := storage.DefaultBadgerConfig(filepath.Join(dir, "badger"))
			cfg.GCInterval = time.Hour
			s, err := Open(Config{Driver: "badger", Badger: cfg}, nil)
			if err != nil {
				t.Fatalf("Open(badger) error = %v", err)
			}
			return s
		},
	}
}

func mustRecord(t *testing.T, at time.Time, uid string, authorized bool, outcome string) domain.AuditRecord {
	t.Helper()
	rec, err := domain.NewAuditRecord(at, uid, authorized, outcome, domain.CorrelationID(at.Format(domain.CorrelationLayout)))
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestStore_AppendOrder(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, t.TempDir())
			defer s.Close()
			ctx := context.Background()

			base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
			for i := 0; i < 12; i++ {
				outcome := fmt.Sprintf("/photos/photo_%d.jpg", i)
				if i%3 == 0 {
					outcome = domain.AuditOutcomeTimeout
				}
				if err := s.Record(ctx, mustRecord(t, base.Add(time.Duration(i)*time.Second), fmt.Sprint(i), i%2 == 0, outcome)); err != nil {
					t.Fatalf("Record(%d) error = %v", i, err)
				}
			}

			var got []domain.AuditRecord
			if err := s.Each(ctx, func(r domain.AuditRecord) error {
				got = append(got, r)
				return nil
			}); err != nil {
				t.Fatalf("Each() error = %v", err)
			}

			if len(got) != 12 {
				t.Fatalf("Each() returned %d records, want 12", len(got))
			}
			for i, r := range got {
				if r.SubjectID != fmt.Sprint(i) {
					t.Errorf("record %d uid = %q, want log order", i, r.SubjectID)
				}
				if r.Authorized != (i%2 == 0) {
					t.Errorf("record %d authorized = %v", i, r.Authorized)
				}
				if !r.Timestamp.Equal(base.Add(time.Duration(i) * time.Second)) {
					t.Errorf("record %d ts = %v", i, r.Timestamp)
				}
			}
			if got[0].Outcome != domain.AuditOutcomeTimeout || got[1].Outcome != "/photos/photo_1.jpg" {
				t.Errorf("outcomes = %q, %q", got[0].Outcome, got[1].Outcome)
			}
		})
	}
}

func TestStore_Recent(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, t.TempDir())
			defer s.Close()
			ctx := context.Background()

			base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				s.Record(ctx, mustRecord(t, base.Add(time.Duration(i)*time.Minute), fmt.Sprint(i), true, "p"))
			}

			recent, err := s.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(recent) != 3 {
				t.Fatalf("Recent(3) returned %d records", len(recent))
			}
			for i, want := range []string{"4", "3", "2"} {
				if recent[i].SubjectID != want {
					t.Errorf("recent[%d] = %q, want %q", i, recent[i].SubjectID, want)
				}
			}
		})
	}
}

func TestStore_EachStopsOnError(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t, t.TempDir())
			defer s.Close()
			ctx := context.Background()

			now := time.Now()
			s.Record(ctx, mustRecord(t, now, "1", true, "p"))
			s.Record(ctx, mustRecord(t, now, "2", true, "p"))

			stop := errors.New("stop")
			calls := 0
			err := s.Each(ctx, func(domain.AuditRecord) error {
				calls++
				return stop
			})
			if !errors.Is(err, stop) || calls != 1 {
				t.Errorf("Each() = %v after %d calls, want stop after 1", err, calls)
			}
		})
	}
}

func TestStore_Reopen(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()
			now := time.Now()

			s := open(t, dir)
			s.Record(ctx, mustRecord(t, now, "before", true, "p"))
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			s = open(t, dir)
			defer s.Close()
			s.Record(ctx, mustRecord(t, now, "after", false, domain.AuditOutcomeTimeout))

			var uids []string
			s.Each(ctx, func(r domain.AuditRecord) error {
				uids = append(uids, r.SubjectID)
				return nil
			})
			if len(uids) != 2 || uids[0] != "before" || uids[1] != "after" {
				t.Errorf("uids after reopen = %v", uids)
			}
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "csv"}, nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Open() error = %v, want ErrInvalidArgument", err)
	}
}

// legacySchema is the table the first controller created.
const legacySchema = `CREATE TABLE IF NOT EXISTS logs (ts TEXT, uid TEXT, authorized INTEGER, photo TEXT)`

func TestSQLiteStore_UpgradesLegacyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfid_log.db")
	legacy, err := storage.OpenSQLite(path, storage.WithSchema(legacySchema))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := legacy.Exec(`INSERT INTO logs VALUES ('2024-11-02T23:50:01.123456', '3208714727', 0, 'TIMEOUT')`); err != nil {
		t.Fatal(err)
	}
	if _, err := legacy.Exec(`INSERT INTO logs VALUES ('2024-11-03T07:12:44.000001', NULL, 1, NULL)`); err != nil {
		t.Fatal(err)
	}
	legacy.Close()

	s, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("OpenSQLite() on legacy table error = %v", err)
	}
	ctx := context.Background()

	rec := mustRecord(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local), "413369794588", true, "/photos/photo_a.jpg")
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil || len(recent) != 3 {
		t.Fatalf("Recent() = %v, %v", recent, err)
	}
	if recent[0].ID != rec.ID || recent[0].CorrelationID != rec.CorrelationID {
		t.Errorf("new row = %+v, want id and correlation id kept", recent[0])
	}
	if r := recent[1]; !r.Authorized || r.SubjectID != "" || r.Outcome != "" || r.ID != "" {
		t.Errorf("legacy row with NULLs = %+v", r)
	}
	r := recent[2]
	if r.Timestamp.IsZero() || r.Timestamp.Year() != 2024 {
		t.Errorf("legacy ts parsed as %v", r.Timestamp)
	}
	if r.Authorized || r.SubjectID != "3208714727" || r.Outcome != domain.AuditOutcomeTimeout {
		t.Errorf("legacy row = %+v", r)
	}

	// A second open finds nothing to add.
	s.Close()
	again, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	again.Close()
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{-1: 50, 0: 50, 10: 10, 5000: 1000} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
