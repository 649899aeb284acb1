// Package config loads and validates the accessmon configuration.
//
// Configuration comes from an optional YAML file; command-line flags on the
// daemon override individual fields. An invalid configuration is rejected at
// construction time, before any log line is processed.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	defaults "github.com/xtxerr/accessmon/config"
)

// Config represents the complete accessmon configuration.
type Config struct {
	// ReportIntervalSec is the cadence of periodic section statistics,
	// in log-seconds.
	ReportIntervalSec int `yaml:"report_interval_sec"`

	// WindowSizeSec is the trailing alert window length in log-seconds.
	// It is also the lateness bound for out-of-order records.
	WindowSizeSec int `yaml:"window_size_sec"`

	// AlertThreshold is the average hits/sec rate over the trailing window
	// above which the high-traffic alert fires.
	AlertThreshold float64 `yaml:"alert_threshold"`

	// Debug enables verbose diagnostics.
	Debug bool `yaml:"debug"`

	// Input configures where log lines are read from.
	Input InputConfig `yaml:"input"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Percentile configures DDSketch response-size percentiles in reports.
	Percentile PercentileConfig `yaml:"percentile"`

	// Archive configures the optional Parquet report/alert archive.
	Archive ArchiveConfig `yaml:"archive"`
}

// InputConfig configures where log lines are read from.
type InputConfig struct {
	// Path is the log file to read. Empty means stdin.
	Path string `yaml:"path"`

	// Follow keeps reading as the file grows (tail mode).
	// Only meaningful with a non-empty Path.
	Follow bool `yaml:"follow"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches log output from text to JSON.
	JSON bool `yaml:"json"`
}

// PercentileConfig configures DDSketch response-size percentiles.
type PercentileConfig struct {
	// Enabled adds p50/p95/p99 of the bytes column to each report.
	Enabled bool `yaml:"enabled"`

	// Accuracy is the relative accuracy (0.01 = 1% error).
	Accuracy float64 `yaml:"accuracy"`
}

// ArchiveConfig configures the optional Parquet report/alert archive.
type ArchiveConfig struct {
	// Enabled turns the archive on.
	Enabled bool `yaml:"enabled"`

	// Dir is the directory archive files are written to.
	Dir string `yaml:"dir"`

	// Compression is the Parquet compression algorithm:
	// zstd, snappy, lz4, gzip or none.
	Compression string `yaml:"compression"`

	// CompressionLevel is the level for algorithms that support one.
	CompressionLevel int `yaml:"compression_level"`
}

// DefaultConfig returns a configuration populated with the documented
// defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportIntervalSec: defaults.DefaultReportIntervalSec,
		WindowSizeSec:     defaults.DefaultWindowSizeSec,
		AlertThreshold:    defaults.DefaultAlertThreshold,
		Debug:             defaults.DefaultDebug,
		Logging: LoggingConfig{
			Level: "info",
		},
		Percentile: PercentileConfig{
			Accuracy: defaults.DefaultPercentileAccuracy,
		},
		Archive: ArchiveConfig{
			Compression:      defaults.DefaultArchiveCompression,
			CompressionLevel: defaults.DefaultArchiveCompressionLevel,
		},
	}
}

// Load reads a YAML configuration file and merges it over the defaults.
// The result is not validated; call Validate before use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
