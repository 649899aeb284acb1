// Package monitor implements the log-time-driven traffic monitoring engine.
//
// Architecture:
//
//	raw line ──▶ parse ──▶ Monitor.FeedLine
//	                          │
//	                          ├─▶ WindowStore  (per-second buckets, eviction)
//	                          ├─▶ AlertEngine  (trailing-window rate, hysteresis)
//	                          └─▶ Reporter     (fixed-cadence section stats)
//
// All cadence is driven by timestamps embedded in the log lines, never by
// the wall clock, so a live tail and a replay of a historic file behave
// identically. One Monitor owns all state and is not safe for concurrent
// use; independent Monitors share nothing.
package monitor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xtxerr/accessmon/internal/logging"
	"github.com/xtxerr/accessmon/internal/parse"
)

// Handler receives the monitor's outputs: one call per flushed report
// interval, one call per alert state transition. The report's Sections map
// is never reused and may be retained.
type Handler interface {
	HandleReport(Report)
	HandleAlert(AlertEvent)
}

// Config carries the monitoring parameters.
type Config struct {
	// ReportIntervalSec is the statistics cadence in log-seconds.
	ReportIntervalSec int

	// WindowSizeSec is the trailing alert window in log-seconds, also the
	// lateness bound.
	WindowSizeSec int

	// AlertThreshold is the hits/sec rate above which the alert fires.
	AlertThreshold float64

	// PercentileEnabled adds response-size percentiles to reports.
	PercentileEnabled bool

	// PercentileAccuracy is the DDSketch relative accuracy.
	PercentileAccuracy float64
}

func (c Config) validate() error {
	var errs []error
	if c.ReportIntervalSec <= 0 {
		errs = append(errs, errors.New("report interval must be positive"))
	}
	if c.WindowSizeSec <= 0 {
		errs = append(errs, errors.New("window size must be positive"))
	}
	if c.AlertThreshold <= 0 {
		errs = append(errs, errors.New("alert threshold must be positive"))
	}
	if c.PercentileEnabled && (c.PercentileAccuracy <= 0 || c.PercentileAccuracy > 1) {
		errs = append(errs, errors.New("percentile accuracy must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

// Counters track per-run ingestion totals, reported at exit in debug mode.
type Counters struct {
	Lines       int64 // raw lines fed, header included
	Hits        int64 // records accepted into the window
	ParseErrors int64 // malformed lines skipped
	StaleDrops  int64 // records older than the lateness bound
	Evicted     int64 // buckets aged out of the window
}

// Monitor is the orchestrator: it parses each line and drives the window
// store, the alert engine and the stats reporter from the same record.
type Monitor struct {
	parser   *parse.Parser
	window   *WindowStore
	alert    *AlertEngine
	stats    *Reporter
	counters Counters
	log      *slog.Logger
}

// New constructs a Monitor. An invalid configuration or nil handler is
// rejected here, before any line is processed.
func New(cfg Config, handler Handler) (*Monitor, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("monitor config: %w", err)
	}
	if handler == nil {
		return nil, errors.New("monitor: nil handler")
	}

	stats := NewReporter(int64(cfg.ReportIntervalSec), handler.HandleReport)
	if cfg.PercentileEnabled {
		stats.EnablePercentiles(cfg.PercentileAccuracy)
	}

	return &Monitor{
		parser: parse.New(),
		window: NewWindowStore(int64(cfg.WindowSizeSec)),
		alert:  NewAlertEngine(int64(cfg.WindowSizeSec), cfg.AlertThreshold, handler.HandleAlert),
		stats:  stats,
		log:    logging.Component("monitor"),
	}, nil
}

// FeedLine ingests one raw log line. A malformed line is skipped and
// reported as an error without touching any monitoring state; the stream
// continues.
func (m *Monitor) FeedLine(line string) error {
	m.counters.Lines++

	rec, ok, err := m.parser.ParseLine(line)
	if err != nil {
		m.counters.ParseErrors++
		m.log.Debug("skipping malformed line", "line", m.counters.Lines, "error", err)
		return fmt.Errorf("line %d: %w", m.counters.Lines, err)
	}
	if !ok {
		return nil // header or blank line
	}

	m.ingest(rec)
	return nil
}

// ingest drives all three consumers from one parsed record. The alert must
// see the post-upsert window sum, evaluated at the monotonic newest
// timestamp.
func (m *Monitor) ingest(rec parse.Record) {
	evicted, stale := m.window.Upsert(rec.Timestamp, rec.Section)
	m.counters.Evicted += int64(len(evicted))

	if stale {
		m.counters.StaleDrops++
		m.log.Debug("dropping stale record",
			"ts", rec.Timestamp, "floor", m.window.Floor())
		return
	}

	m.counters.Hits++
	m.alert.OnTick(m.window.WindowSum(), m.window.MaxSeen())
	m.stats.OnHit(rec.Section, rec.Timestamp, m.window.MaxSeen(), rec.Bytes)
}

// AdvanceTo moves log time forward without recording traffic: buckets age
// out, an active alert can clear, and pending report intervals flush, even
// though no new hits arrive.
func (m *Monitor) AdvanceTo(ts int64) {
	evicted := m.window.AdvanceTo(ts)
	m.counters.Evicted += int64(len(evicted))
	m.alert.OnTick(m.window.WindowSum(), m.window.MaxSeen())
	m.stats.MaybeFlush(m.window.MaxSeen())
}

// Close flushes the final partial report interval, if any. The monitor must
// not be fed after Close.
func (m *Monitor) Close() {
	m.stats.FinalFlush(m.window.MaxSeen())
}

// Counters returns the ingestion totals so far.
func (m *Monitor) Counters() Counters {
	return m.counters
}

// AlertState returns the current alert state.
func (m *Monitor) AlertState() AlertState {
	return m.alert.State()
}

// WindowSum returns the current trailing-window hit count.
func (m *Monitor) WindowSum() int64 {
	return m.window.WindowSum()
}
