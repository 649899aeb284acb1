// Package archive persists flushed statistics reports and alert transitions
// to Parquet files. It sits on the monitor's callback surface as an extra
// Handler; the monitoring engine itself keeps no on-disk state.
package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/xtxerr/accessmon/internal/logging"
	"github.com/xtxerr/accessmon/internal/monitor"
)

// ErrWriterClosed is returned when appending to a closed archive.
var ErrWriterClosed = errors.New("archive writer closed")

// Options configures the archive files.
type Options struct {
	// Compression algorithm.
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22).
	CompressionLevel int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default archive options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// ReportRow is one section of one flushed report interval in Parquet form.
type ReportRow struct {
	IntervalStart int64   `parquet:"interval_start"`
	IntervalEnd   int64   `parquet:"interval_end"`
	Section       string  `parquet:"section,zstd"`
	Hits          int64   `parquet:"hits"`
	TotalHits     int64   `parquet:"total_hits"`
	Final         bool    `parquet:"final"`
	BytesP50      float64 `parquet:"bytes_p50,optional"`
	BytesP95      float64 `parquet:"bytes_p95,optional"`
	BytesP99      float64 `parquet:"bytes_p99,optional"`
}

// AlertRow is one alert transition in Parquet form.
type AlertRow struct {
	Timestamp  int64   `parquet:"timestamp"`
	Triggered  bool    `parquet:"triggered"`
	WindowHits int64   `parquet:"window_hits"`
	Rate       float64 `parquet:"rate"`
}

// ReportToRows flattens a report into one row per section.
func ReportToRows(r monitor.Report) []ReportRow {
	rows := make([]ReportRow, 0, len(r.Sections))
	for section, hits := range r.Sections {
		row := ReportRow{
			IntervalStart: r.IntervalStart,
			IntervalEnd:   r.IntervalEnd,
			Section:       section,
			Hits:          hits,
			TotalHits:     r.TotalHits,
			Final:         r.Final,
		}
		if r.BytesP50 != nil {
			row.BytesP50 = *r.BytesP50
			row.BytesP95 = *r.BytesP95
			row.BytesP99 = *r.BytesP99
		}
		rows = append(rows, row)
	}
	return rows
}

// AlertToRow converts an alert transition to its Parquet form.
func AlertToRow(e monitor.AlertEvent) AlertRow {
	return AlertRow{
		Timestamp:  e.Timestamp,
		Triggered:  e.Triggered,
		WindowHits: e.WindowHits,
		Rate:       e.Rate,
	}
}

// Writer appends report and alert rows to a pair of Parquet files in one
// directory: reports-<start>.parquet and alerts-<start>.parquet.
// It implements monitor.Handler; append failures are logged, never fatal to
// the monitoring run.
type Writer struct {
	dir    string
	closed bool

	reportFile   *os.File
	reportWriter *parquet.GenericWriter[ReportRow]

	alertFile   *os.File
	alertWriter *parquet.GenericWriter[AlertRow]

	log *slog.Logger
}

// NewWriter creates the archive directory and opens both files.
func NewWriter(dir string, opts Options) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression)),
	}

	reportFile, err := os.Create(filepath.Join(dir, "reports-"+stamp+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("create report archive: %w", err)
	}

	alertFile, err := os.Create(filepath.Join(dir, "alerts-"+stamp+".parquet"))
	if err != nil {
		reportFile.Close()
		return nil, fmt.Errorf("create alert archive: %w", err)
	}

	return &Writer{
		dir:          dir,
		reportFile:   reportFile,
		reportWriter: parquet.NewGenericWriter[ReportRow](reportFile, writerOpts...),
		alertFile:    alertFile,
		alertWriter:  parquet.NewGenericWriter[AlertRow](alertFile, writerOpts...),
		log:          logging.Component("archive"),
	}, nil
}

// HandleReport appends one row per section of the flushed report.
func (w *Writer) HandleReport(r monitor.Report) {
	if err := w.AppendReport(r); err != nil {
		w.log.Error("archive report append failed", "error", err)
	}
}

// HandleAlert appends one alert transition row.
func (w *Writer) HandleAlert(e monitor.AlertEvent) {
	if err := w.AppendAlert(e); err != nil {
		w.log.Error("archive alert append failed", "error", err)
	}
}

// AppendReport writes the report's rows to the report file.
func (w *Writer) AppendReport(r monitor.Report) error {
	if w.closed {
		return ErrWriterClosed
	}
	rows := ReportToRows(r)
	if len(rows) == 0 {
		return nil
	}
	if _, err := w.reportWriter.Write(rows); err != nil {
		return fmt.Errorf("write report rows: %w", err)
	}
	return nil
}

// AppendAlert writes one alert row to the alert file.
func (w *Writer) AppendAlert(e monitor.AlertEvent) error {
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.alertWriter.Write([]AlertRow{AlertToRow(e)}); err != nil {
		return fmt.Errorf("write alert row: %w", err)
	}
	return nil
}

// Close finalizes both Parquet files.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if err := w.reportWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close report writer: %w", err))
	}
	if err := w.reportFile.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.alertWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close alert writer: %w", err))
	}
	if err := w.alertFile.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ReadReports reads back every row of a report archive file.
func ReadReports(path string) ([]ReportRow, error) {
	return readAll[ReportRow](path)
}

// ReadAlerts reads back every row of an alert archive file.
func ReadAlerts(path string) ([]AlertRow, error) {
	return readAll[AlertRow](path)
}

func readAll[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return rows[:n], nil
}
