package config

import (
	"errors"
	"fmt"
)

var validCompressions = map[string]bool{
	"":       true,
	"none":   true,
	"snappy": true,
	"zstd":   true,
	"lz4":    true,
	"gzip":   true,
}

// Validate checks the configuration for errors.
// All problems are reported at once via errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if c.ReportIntervalSec <= 0 {
		errs = append(errs, errors.New("report_interval_sec must be positive"))
	}

	if c.WindowSizeSec <= 0 {
		errs = append(errs, errors.New("window_size_sec must be positive"))
	}

	if c.AlertThreshold <= 0 {
		errs = append(errs, errors.New("alert_threshold must be positive"))
	}

	if err := c.Input.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("input: %w", err))
	}

	if err := c.Percentile.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("percentile: %w", err))
	}

	if err := c.Archive.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("archive: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the input configuration.
func (c *InputConfig) Validate() error {
	if c.Follow && c.Path == "" {
		return errors.New("follow requires a file path")
	}
	return nil
}

// Validate checks the percentile configuration.
func (c *PercentileConfig) Validate() error {
	if c.Enabled {
		if c.Accuracy <= 0 || c.Accuracy > 1 {
			return errors.New("accuracy must be between 0 and 1")
		}
	}
	return nil
}

// Validate checks the archive configuration.
func (c *ArchiveConfig) Validate() error {
	var errs []error

	if c.Enabled && c.Dir == "" {
		errs = append(errs, errors.New("dir is required when enabled"))
	}

	if !validCompressions[c.Compression] {
		errs = append(errs, fmt.Errorf("unknown compression %q", c.Compression))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
