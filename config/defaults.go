// Package config provides configuration defaults and utilities
// for the accessmon application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or command-line flags.
package config

import "time"

// =============================================================================
// Monitor Defaults
// =============================================================================

const (
	// DefaultReportIntervalSec is the cadence of periodic section statistics,
	// measured in log-seconds (timestamps read from the input, not wall clock).
	// Override via config: report_interval_sec
	DefaultReportIntervalSec = 10

	// DefaultWindowSizeSec is the length of the trailing window used for the
	// traffic alert. It doubles as the lateness bound: a record older than
	// window_size behind the newest timestamp seen is dropped.
	// Override via config: window_size_sec
	DefaultWindowSizeSec = 120

	// DefaultAlertThreshold is the average hits-per-second rate over the
	// trailing window above which the high-traffic alert fires.
	// Override via config: alert_threshold
	DefaultAlertThreshold = 10.0

	// DefaultDebug enables verbose diagnostics (parse failures, stale drops,
	// run counters at exit). Orthogonal to monitoring logic.
	// Override via config: debug
	DefaultDebug = false
)

// =============================================================================
// Input Defaults
// =============================================================================

const (
	// DefaultFollowPollInterval is how often the reader re-checks a followed
	// file for growth after hitting EOF. Wall-clock time; only affects I/O,
	// never monitor cadence.
	DefaultFollowPollInterval = 250 * time.Millisecond

	// DefaultMaxLineBytes limits the size of a single log line.
	// Longer lines are treated as malformed.
	DefaultMaxLineBytes = 1 * 1024 * 1024
)

// =============================================================================
// Percentile Defaults
// =============================================================================

const (
	// DefaultPercentileAccuracy is the DDSketch relative accuracy used for
	// per-interval response-size percentiles (0.01 = 1% error).
	// Override via config: percentile.accuracy
	DefaultPercentileAccuracy = 0.01
)

// =============================================================================
// Archive Defaults
// =============================================================================

const (
	// DefaultArchiveCompression is the Parquet compression algorithm for the
	// optional report/alert archive: zstd, snappy, lz4, gzip or none.
	// Override via config: archive.compression
	DefaultArchiveCompression = "zstd"

	// DefaultArchiveCompressionLevel is the compression level for algorithms
	// that support one (zstd: 1-22).
	// Override via config: archive.compression_level
	DefaultArchiveCompressionLevel = 3

	// DefaultArchiveRowGroupSize is the target number of rows per Parquet
	// row group in archive files.
	DefaultArchiveRowGroupSize = 10000
)
