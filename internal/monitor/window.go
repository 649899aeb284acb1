package monitor

// Bucket aggregates every hit observed at a single log-second.
// One bucket exists per distinct second seen inside the window.
type Bucket struct {
	// Timestamp is the second this bucket covers, Unix seconds.
	Timestamp int64

	// TotalHits is the number of requests at this second.
	TotalHits int64

	// Sections maps URL section to its hit count at this second.
	Sections map[string]int64
}

// WindowStore holds the ordered per-second buckets of the trailing window
// [maxSeen-size+1, maxSeen]. It tolerates out-of-order arrival up to the
// window size: arrivals are nearly sorted, so the insertion point is found
// by scanning backward from the newest bucket, which is O(1) amortized.
//
// The backing structure is a double-ended sequence: O(1) push at the newest
// end, O(1) pop at the oldest end, short backward scans in between. The
// window sum is maintained incrementally so queries are O(1).
type WindowStore struct {
	size    int64
	buckets []Bucket // ascending by Timestamp; live region starts at head
	head    int
	maxSeen int64
	sum     int64
	started bool
}

// NewWindowStore creates a store for a trailing window of windowSize
// log-seconds. windowSize must be positive.
func NewWindowStore(windowSize int64) *WindowStore {
	return &WindowStore{size: windowSize}
}

// Floor returns the oldest timestamp still inside the window.
// Records older than this are stale and dropped.
func (s *WindowStore) Floor() int64 {
	return s.maxSeen - s.size + 1
}

// MaxSeen returns the newest timestamp observed. It never decreases.
func (s *WindowStore) MaxSeen() int64 {
	return s.maxSeen
}

// WindowSum returns the total hits across all buckets in the window.
func (s *WindowStore) WindowSum() int64 {
	return s.sum
}

// Len returns the number of materialized buckets. Seconds with no hits are
// implicitly zero and never materialized.
func (s *WindowStore) Len() int {
	return len(s.buckets) - s.head
}

// Started reports whether any timestamp has been observed yet.
func (s *WindowStore) Started() bool {
	return s.started
}

// Upsert records one hit for section at the given timestamp.
//
// A timestamp older than the window floor is a stale record: the call is a
// no-op reporting dropped=true. Otherwise the newest-seen timestamp advances
// if needed, the hit lands in its per-second bucket (created on first hit),
// and every bucket that fell below the new window floor is evicted and
// returned.
func (s *WindowStore) Upsert(ts int64, section string) (evicted []Bucket, dropped bool) {
	if s.started && ts < s.Floor() {
		return nil, true
	}

	if !s.started || ts > s.maxSeen {
		s.started = true
		s.maxSeen = ts
	}

	s.bump(ts, section)
	return s.evict(), false
}

// AdvanceTo moves the newest-seen timestamp forward without recording a hit.
// Buckets that age out are evicted and returned. Timestamps at or before the
// current maximum are ignored. An AdvanceTo before any hit establishes the
// window position so later stale records are recognized.
func (s *WindowStore) AdvanceTo(ts int64) []Bucket {
	if !s.started {
		s.started = true
		s.maxSeen = ts
		return nil
	}
	if ts <= s.maxSeen {
		return nil
	}
	s.maxSeen = ts
	return s.evict()
}

// bump adds one hit to the bucket for ts, creating it in timestamp order.
func (s *WindowStore) bump(ts int64, section string) {
	s.sum++

	// Nearly sorted input: the right bucket is almost always at or near the
	// back.
	i := len(s.buckets) - 1
	for i >= s.head && s.buckets[i].Timestamp > ts {
		i--
	}

	if i >= s.head && s.buckets[i].Timestamp == ts {
		b := &s.buckets[i]
		b.TotalHits++
		b.Sections[section]++
		return
	}

	at := i + 1
	s.buckets = append(s.buckets, Bucket{})
	copy(s.buckets[at+1:], s.buckets[at:])
	s.buckets[at] = Bucket{
		Timestamp: ts,
		TotalHits: 1,
		Sections:  map[string]int64{section: 1},
	}
}

// evict pops every bucket below the window floor off the oldest end.
func (s *WindowStore) evict() []Bucket {
	floor := s.Floor()

	var evicted []Bucket
	for s.head < len(s.buckets) && s.buckets[s.head].Timestamp < floor {
		b := s.buckets[s.head]
		s.sum -= b.TotalHits
		s.buckets[s.head] = Bucket{}
		s.head++
		evicted = append(evicted, b)
	}

	// Reclaim the dead prefix once it dominates the slice.
	if s.head > 64 && s.head*2 >= len(s.buckets) {
		n := copy(s.buckets, s.buckets[s.head:])
		clear(s.buckets[n:])
		s.buckets = s.buckets[:n]
		s.head = 0
	}

	return evicted
}
