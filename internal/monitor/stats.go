package monitor

import (
	"github.com/DataDog/sketches-go/ddsketch"
)

// Report is a flushed statistics snapshot covering one report interval
// [IntervalStart, IntervalEnd).
type Report struct {
	IntervalStart int64
	IntervalEnd   int64

	// TotalHits is the number of requests accumulated in the interval.
	TotalHits int64

	// Sections maps URL section to hit count. Sections with zero hits are
	// omitted.
	Sections map[string]int64

	// Final marks the partial flush emitted at stream end.
	Final bool

	// Response-size percentiles over the interval's bytes column.
	// Nil unless percentile tracking is enabled.
	BytesP50 *float64
	BytesP95 *float64
	BytesP99 *float64
}

// Reporter accumulates per-section hit counts and emits one Report per
// elapsed report interval.
//
// Flush boundaries form a fixed grid anchored at the first observed
// timestamp floored to the interval: boundaries sit at gridStart + k*interval
// regardless of gaps in traffic. A record landing exactly on a boundary
// closes the previous interval before being accumulated into the next one.
// Intervals with zero hits are skipped (the grid still advances), as is the
// final partial interval when empty.
type Reporter struct {
	interval int64
	start    int64 // current interval start, grid aligned
	started  bool

	total    int64
	sections map[string]int64

	sketchAccuracy float64 // 0 = percentiles disabled
	sketch         *ddsketch.DDSketch

	emit func(Report)
}

// NewReporter creates a reporter with the given cadence in log-seconds.
func NewReporter(interval int64, emit func(Report)) *Reporter {
	return &Reporter{
		interval: interval,
		sections: make(map[string]int64),
		emit:     emit,
	}
}

// EnablePercentiles turns on DDSketch tracking of response sizes with the
// given relative accuracy (0.01 = 1% error).
func (r *Reporter) EnablePercentiles(accuracy float64) {
	r.sketchAccuracy = accuracy
	r.sketch = newSketch(accuracy)
}

// OnHit accumulates one request. maxSeen is the monotonic newest timestamp,
// which drives the cadence; ts is the record's own timestamp, which decides
// whether the hit falls inside the current interval. A hit older than the
// current interval start is excluded, consistent with the global lateness
// policy.
func (r *Reporter) OnHit(section string, ts, maxSeen, bytes int64) {
	if !r.started {
		r.started = true
		r.start = gridFloor(ts, r.interval)
	}

	r.MaybeFlush(maxSeen)

	if ts < r.start {
		return
	}

	r.total++
	r.sections[section]++
	if r.sketch != nil {
		// Sizes are non-negative; DDSketch only errors on negatives.
		_ = r.sketch.Add(float64(bytes))
	}
}

// MaybeFlush emits reports for every interval the given timestamp has moved
// past, catching up one interval at a time after a large jump.
func (r *Reporter) MaybeFlush(ts int64) {
	if !r.started {
		return
	}
	for ts-r.start >= r.interval {
		r.flush(r.start+r.interval, false)
		r.start += r.interval
	}
}

// FinalFlush emits the current partial interval, if it accumulated anything.
// maxSeen bounds the interval end at the last observed second.
func (r *Reporter) FinalFlush(maxSeen int64) {
	if !r.started || r.total == 0 {
		return
	}
	end := maxSeen + 1
	if e := r.start + r.interval; e < end {
		end = e
	}
	r.flush(end, true)
}

// IntervalStart returns the start of the interval currently accumulating.
func (r *Reporter) IntervalStart() int64 {
	return r.start
}

func (r *Reporter) flush(end int64, final bool) {
	if r.total == 0 {
		return // empty interval, suppressed
	}

	rep := Report{
		IntervalStart: r.start,
		IntervalEnd:   end,
		TotalHits:     r.total,
		Sections:      r.sections,
		Final:         final,
	}

	if r.sketch != nil && r.sketch.GetCount() > 0 {
		if qs, err := r.sketch.GetValuesAtQuantiles([]float64{0.5, 0.95, 0.99}); err == nil {
			rep.BytesP50 = &qs[0]
			rep.BytesP95 = &qs[1]
			rep.BytesP99 = &qs[2]
		}
	}

	r.emit(rep)

	r.total = 0
	r.sections = make(map[string]int64)
	if r.sketchAccuracy > 0 {
		r.sketch = newSketch(r.sketchAccuracy)
	}
}

func newSketch(accuracy float64) *ddsketch.DDSketch {
	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err != nil {
		return nil
	}
	return sketch
}

// gridFloor rounds ts down to the interval grid, correct for negative
// timestamps too.
func gridFloor(ts, interval int64) int64 {
	f := ts % interval
	if f < 0 {
		f += interval
	}
	return ts - f
}
