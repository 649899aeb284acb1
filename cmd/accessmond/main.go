// accessmond monitors a stream of HTTP access-log lines: it prints section
// statistics every report interval and raises/clears a high-traffic alert
// from a trailing window, all driven by the timestamps in the log itself.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	defaults "github.com/xtxerr/accessmon/config"
	"github.com/xtxerr/accessmon/internal/archive"
	"github.com/xtxerr/accessmon/internal/config"
	"github.com/xtxerr/accessmon/internal/console"
	"github.com/xtxerr/accessmon/internal/logging"
	"github.com/xtxerr/accessmon/internal/monitor"
	"github.com/xtxerr/accessmon/internal/reader"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "", "config file path (default accessmon.yaml if present)")
	interval := flag.Int("s", 0, "report interval in log-seconds (overrides config)")
	window := flag.Int("w", 0, "alert window size in log-seconds (overrides config)")
	threshold := flag.Float64("c", 0, "alert threshold in hits/sec (overrides config)")
	debug := flag.Bool("d", false, "enable debug diagnostics")
	follow := flag.Bool("f", false, "keep reading as the input file grows")
	archiveDir := flag.String("archive-dir", "", "write Parquet report/alert archive to this directory")
	flag.Usage = usage
	flag.Parse()

	// Load config
	path := *cfgPath
	if path == "" {
		path = "accessmon.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !os.IsNotExist(err) || *cfgPath != "" {
			fatal("load config: %v", err)
		}
		cfg = config.DefaultConfig()
	}

	// CLI overrides
	if *interval > 0 {
		cfg.ReportIntervalSec = *interval
	}
	if *window > 0 {
		cfg.WindowSizeSec = *window
	}
	if *threshold > 0 {
		cfg.AlertThreshold = *threshold
	}
	if *debug {
		cfg.Debug = true
	}
	if *follow {
		cfg.Input.Follow = true
	}
	if *archiveDir != "" {
		cfg.Archive.Enabled = true
		cfg.Archive.Dir = *archiveDir
	}
	if flag.NArg() > 0 {
		cfg.Input.Path = flag.Arg(0)
	}
	if cfg.Debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration:\n%v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fatal("%v", err)
	}
	logging.Init(level, cfg.Logging.JSON)
	log := logging.Component("main")

	log.Debug("accessmond starting", "version", Version,
		"report_interval_sec", cfg.ReportIntervalSec,
		"window_size_sec", cfg.WindowSizeSec,
		"alert_threshold", cfg.AlertThreshold)

	// Output handlers: console always, archive when configured.
	handlers := []monitor.Handler{console.New()}

	var arch *archive.Writer
	if cfg.Archive.Enabled {
		arch, err = archive.NewWriter(cfg.Archive.Dir, archive.Options{
			Compression:      archive.ParseCompressionType(cfg.Archive.Compression),
			CompressionLevel: cfg.Archive.CompressionLevel,
		})
		if err != nil {
			fatal("open archive: %v", err)
		}
		handlers = append(handlers, arch)
	}

	mon, err := monitor.New(monitor.Config{
		ReportIntervalSec:  cfg.ReportIntervalSec,
		WindowSizeSec:      cfg.WindowSizeSec,
		AlertThreshold:     cfg.AlertThreshold,
		PercentileEnabled:  cfg.Percentile.Enabled,
		PercentileAccuracy: cfg.Percentile.Accuracy,
	}, monitor.MultiHandler(handlers...))
	if err != nil {
		fatal("create monitor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feed := func(line string) {
			// Malformed lines are already counted and logged; the stream
			// continues.
			_ = mon.FeedLine(line)
		}

		if cfg.Input.Path == "" {
			return reader.Stream(ctx, os.Stdin, feed)
		}
		if cfg.Input.Follow {
			return reader.Follow(ctx, cfg.Input.Path, defaults.DefaultFollowPollInterval, feed)
		}

		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Input.Path, err)
		}
		defer f.Close()
		return reader.Stream(ctx, f, feed)
	})

	runErr := g.Wait()

	// Final partial-interval report, then finalize the archive.
	mon.Close()
	if arch != nil {
		if err := arch.Close(); err != nil {
			log.Error("close archive", "error", err)
		}
	}

	c := mon.Counters()
	log.Debug("run complete",
		"lines", c.Lines, "hits", c.Hits,
		"parse_errors", c.ParseErrors, "stale_drops", c.StaleDrops,
		"evicted_buckets", c.Evicted, "alert_state", mon.AlertState().String())

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fatal("%v", runErr)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: accessmond [flags] [logfile]

Reads CSV HTTP access-log lines (first line is the column header) from
stdin, or from logfile when given. Prints section statistics every report
interval and raises a high-traffic alert when the average rate over the
trailing window exceeds the threshold. All timing is driven by the
timestamps inside the log, so replays behave exactly like live traffic.

Flags:
`)
	flag.PrintDefaults()
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "accessmond: "+format+"\n", args...)
	os.Exit(1)
}
