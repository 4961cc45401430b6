package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
)

// DefaultWriteTimeout bounds a single Record call.
const DefaultWriteTimeout = 2 * time.Second

// Sink appends records.
type Sink interface {
	Record(ctx context.Context, rec domain.AuditRecord) error
}

// Reader reads records back.
type Reader interface {
	// Each calls fn for every record in log order. A non-nil error from fn
	// stops the scan and is returned.
	Each(ctx context.Context, fn func(domain.AuditRecord) error) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}

// Store is a Sink and Reader backed by a database.
type Store interface {
	Sink
	Reader
	Close() error
}

// Config selects and configures the backend.
type Config struct {
	// Driver is "sqlite" (default) or "badger".
	Driver string `koanf:"driver"`

	// Path is the SQLite database file.
	Path string `koanf:"path"`

	// Badger configures the Badger backend.
	Badger storage.BadgerConfig `koanf:"badger"`

	// WriteTimeout bounds a single Record call.
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Open opens the store selected by cfg.Driver.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(cfg.Path, cfg.WriteTimeout)
	case "badger":
		engine, err := storage.OpenBadger(cfg.Badger, logger)
		if err != nil {
			return nil, domain.ErrAuditWrite.WithCause(err)
		}
		return NewBadgerStore(engine, cfg.WriteTimeout)
	default:
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("audit driver %q", cfg.Driver))
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
