package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/storage"
	"github.com/yndnr/gatecam/internal/storage/audit"
)

// Header is the first line of every export.
var Header = []string{"timestamp", "uid", "authorized", "photo"}

// Exporter writes the full audit log to a CSV file.
type Exporter struct {
	reader audit.Reader
	path   string
	logger *slog.Logger
}

// NewExporter creates an exporter writing to path.
func NewExporter(reader audit.Reader, path string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{reader: reader, path: path, logger: logger}
}

// Path returns the output file.
func (e *Exporter) Path() string { return e.path }

// Export replaces the output file with a snapshot of every record in log
// order and returns the number of rows written.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	var rows int
	err := storage.WriteFileAtomic(e.path, 0o640, func(f io.Writer) error {
		n, err := WriteCSV(ctx, bufio.NewWriter(f), e.reader)
		rows = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	e.logger.Info("audit log exported", "path", e.path, "rows", rows)
	return rows, nil
}

// WriteCSV writes the header and one line per record to w and flushes it.
func WriteCSV(ctx context.Context, w *bufio.Writer, reader audit.Reader) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}

	rows := 0
	err := reader.Each(ctx, func(rec domain.AuditRecord) error {
		rows++
		return cw.Write([]string{
			rec.FormattedTimestamp(),
			rec.SubjectID,
			strconv.Itoa(rec.AuthorizedFlag()),
			rec.Outcome,
		})
	})
	if err != nil {
		return rows, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, err
	}
	return rows, w.Flush()
}
