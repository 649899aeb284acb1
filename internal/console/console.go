// Package console renders monitor output for a terminal: one block per
// statistics report and one colored line per alert transition.
package console

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/xtxerr/accessmon/internal/monitor"
)

// ANSI colors, matching the traditional output of this tool family.
const (
	colorOK    = "\033[92m"
	colorWarn  = "\033[93m"
	colorAlert = "\033[91m"
	colorReset = "\033[0m"
)

// Handler writes reports and alert transitions to a terminal.
// It implements monitor.Handler.
type Handler struct {
	w     io.Writer
	color bool
}

// New returns a Handler writing colored output to stdout.
func New() *Handler {
	return &Handler{w: os.Stdout, color: true}
}

// NewWriter returns a Handler writing to w, optionally with ANSI colors.
func NewWriter(w io.Writer, color bool) *Handler {
	return &Handler{w: w, color: color}
}

// HandleReport prints one statistics block, sections ordered by hit count
// (ties broken by name) so output is deterministic.
func (h *Handler) HandleReport(r monitor.Report) {
	title := fmt.Sprintf("====Statistics report %s - %s====",
		formatTs(r.IntervalStart), formatTs(r.IntervalEnd))
	if r.Final {
		title = fmt.Sprintf("====Final statistics report at %s====", formatTs(r.IntervalEnd-1))
	}
	fmt.Fprintln(h.w, h.paint(colorOK, title))

	type sectionHits struct {
		section string
		hits    int64
	}
	ordered := make([]sectionHits, 0, len(r.Sections))
	for section, hits := range r.Sections {
		ordered = append(ordered, sectionHits{section, hits})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].hits != ordered[j].hits {
			return ordered[i].hits > ordered[j].hits
		}
		return ordered[i].section < ordered[j].section
	})

	for _, s := range ordered {
		fmt.Fprintf(h.w, "Section: %s hits: %d\n", s.section, s.hits)
	}
	fmt.Fprintf(h.w, "Total hits: %d\n", r.TotalHits)

	if r.BytesP50 != nil {
		fmt.Fprintf(h.w, "Bytes p50/p95/p99: %.0f/%.0f/%.0f\n",
			*r.BytesP50, *r.BytesP95, *r.BytesP99)
	}
}

// HandleAlert prints one alert transition line.
func (h *Handler) HandleAlert(e monitor.AlertEvent) {
	if e.Triggered {
		fmt.Fprintln(h.w, h.paint(colorAlert, fmt.Sprintf(
			"High traffic generated an alert - hits = %d (%.3f/s), triggered at %s",
			e.WindowHits, e.Rate, formatTs(e.Timestamp))))
		return
	}
	fmt.Fprintln(h.w, h.paint(colorWarn, fmt.Sprintf(
		"High traffic alert recovered at %s - hits = %d (%.3f/s)",
		formatTs(e.Timestamp), e.WindowHits, e.Rate)))
}

func (h *Handler) paint(color, msg string) string {
	if !h.color {
		return msg
	}
	return color + msg + colorReset
}

func formatTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04:05")
}
