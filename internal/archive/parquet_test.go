package archive

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/xtxerr/accessmon/internal/monitor"
)

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWriter(dir, Options{Compression: CompressionNone})
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}

	p50, p95, p99 := 200.0, 900.0, 1200.0
	report := monitor.Report{
		IntervalStart: 100,
		IntervalEnd:   110,
		TotalHits:     5,
		Sections:      map[string]int64{"/api": 3, "/report": 2},
		BytesP50:      &p50,
		BytesP95:      &p95,
		BytesP99:      &p99,
	}
	if err := w.AppendReport(report); err != nil {
		t.Fatalf("append report: %v", err)
	}

	alert := monitor.AlertEvent{Triggered: true, Timestamp: 105, WindowHits: 1300, Rate: 10.83}
	if err := w.AppendAlert(alert); err != nil {
		t.Fatalf("append alert: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reportFiles, _ := filepath.Glob(filepath.Join(dir, "reports-*.parquet"))
	if len(reportFiles) != 1 {
		t.Fatalf("expected 1 report file, got %v", reportFiles)
	}
	rows, err := ReadReports(reportFiles[0])
	if err != nil {
		t.Fatalf("read reports: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 report rows, got %d", len(rows))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Section < rows[j].Section })
	if rows[0].Section != "/api" || rows[0].Hits != 3 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
	if rows[1].Section != "/report" || rows[1].Hits != 2 {
		t.Errorf("unexpected row: %+v", rows[1])
	}
	for _, row := range rows {
		if row.IntervalStart != 100 || row.IntervalEnd != 110 || row.TotalHits != 5 {
			t.Errorf("interval fields lost: %+v", row)
		}
		if row.BytesP50 != 200.0 || row.BytesP99 != 1200.0 {
			t.Errorf("percentiles lost: %+v", row)
		}
	}

	alertFiles, _ := filepath.Glob(filepath.Join(dir, "alerts-*.parquet"))
	if len(alertFiles) != 1 {
		t.Fatalf("expected 1 alert file, got %v", alertFiles)
	}
	alerts, err := ReadAlerts(alertFiles[0])
	if err != nil {
		t.Fatalf("read alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert row, got %d", len(alerts))
	}
	a := alerts[0]
	if !a.Triggered || a.Timestamp != 105 || a.WindowHits != 1300 {
		t.Errorf("unexpected alert row: %+v", a)
	}
}

func TestWriter_ClosedRejectsAppends(t *testing.T) {
	w, err := NewWriter(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := w.AppendAlert(monitor.AlertEvent{}); err != ErrWriterClosed {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("double close: %v", err)
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		in   string
		want CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"", CompressionNone},
		{"garbage", CompressionZstd},
	}
	for _, tt := range tests {
		if got := ParseCompressionType(tt.in); got != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestReportToRows_Empty(t *testing.T) {
	rows := ReportToRows(monitor.Report{IntervalStart: 0, IntervalEnd: 10})
	if len(rows) != 0 {
		t.Errorf("expected no rows for an empty report, got %d", len(rows))
	}
}
