package monitor

// AlertState labels the two states of the traffic alert.
type AlertState int

const (
	// StateNormal means the average rate is at or below the threshold.
	StateNormal AlertState = iota
	// StateAlerted means the average rate exceeded the threshold and has
	// not yet dropped back.
	StateAlerted
)

// String returns a human-readable representation of the AlertState.
func (s AlertState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateAlerted:
		return "alerted"
	default:
		return "unknown"
	}
}

// AlertEvent describes one alert state transition.
type AlertEvent struct {
	// Triggered is true for NORMAL->ALERTED, false for ALERTED->NORMAL.
	Triggered bool

	// Timestamp is the log-time of the tick that caused the transition.
	Timestamp int64

	// WindowHits is the window sum observed at the transition.
	WindowHits int64

	// Rate is WindowHits averaged over the window, in hits per second.
	Rate float64
}

// AlertEngine applies hysteresis to the evolving window sum: it transitions
// to alerted when the average rate exceeds the threshold, back to normal
// when the rate falls to or below it, and emits exactly one event per
// transition. It must be ticked on every non-stale record and on pure time
// advancement, so an alert clears even when no new traffic arrives.
type AlertEngine struct {
	windowSize  int64
	threshold   float64
	state       AlertState
	triggeredAt int64
	emit        func(AlertEvent)
}

// NewAlertEngine creates an engine in the normal state. threshold is in
// hits per second; windowSize in log-seconds.
func NewAlertEngine(windowSize int64, threshold float64, emit func(AlertEvent)) *AlertEngine {
	return &AlertEngine{
		windowSize: windowSize,
		threshold:  threshold,
		state:      StateNormal,
		emit:       emit,
	}
}

// OnTick re-evaluates the alert against the current window sum. The rate is
// real-valued: integer truncation would misjudge sums right at the
// threshold boundary. No event is emitted when the state is unchanged.
func (a *AlertEngine) OnTick(windowSum, ts int64) {
	rate := float64(windowSum) / float64(a.windowSize)

	switch a.state {
	case StateNormal:
		if rate > a.threshold {
			a.state = StateAlerted
			a.triggeredAt = ts
			a.emit(AlertEvent{
				Triggered:  true,
				Timestamp:  ts,
				WindowHits: windowSum,
				Rate:       rate,
			})
		}
	case StateAlerted:
		if rate <= a.threshold {
			a.state = StateNormal
			a.emit(AlertEvent{
				Triggered:  false,
				Timestamp:  ts,
				WindowHits: windowSum,
				Rate:       rate,
			})
		}
	}
}

// State returns the current alert state.
func (a *AlertEngine) State() AlertState {
	return a.state
}

// TriggeredAt returns the timestamp of the active alert's trigger.
// ok is false while the state is normal.
func (a *AlertEngine) TriggeredAt() (ts int64, ok bool) {
	if a.state != StateAlerted {
		return 0, false
	}
	return a.triggeredAt, true
}
