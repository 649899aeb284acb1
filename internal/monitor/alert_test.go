package monitor

import (
	"testing"
)

func collectAlerts() (*[]AlertEvent, func(AlertEvent)) {
	events := &[]AlertEvent{}
	return events, func(e AlertEvent) { *events = append(*events, e) }
}

func TestAlertEngine_TriggersAboveThreshold(t *testing.T) {
	// window=120, threshold=10: the alert line sits at 1200 hits.
	events, emit := collectAlerts()
	a := NewAlertEngine(120, 10, emit)

	a.OnTick(15, 0)
	if len(*events) != 0 {
		t.Fatalf("rate 0.125 fired an event: %+v", (*events)[0])
	}

	// Exactly at the threshold: > is required, not >=.
	a.OnTick(1200, 1)
	if len(*events) != 0 {
		t.Fatal("rate == threshold must not trigger")
	}

	a.OnTick(1201, 1)
	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*events))
	}

	e := (*events)[0]
	if !e.Triggered {
		t.Error("expected a trigger event")
	}
	if e.Timestamp != 1 {
		t.Errorf("expected timestamp=1, got %d", e.Timestamp)
	}
	if e.WindowHits != 1201 {
		t.Errorf("expected windowHits=1201, got %d", e.WindowHits)
	}
	if e.Rate <= 10 {
		t.Errorf("expected rate > 10, got %f", e.Rate)
	}
	if a.State() != StateAlerted {
		t.Errorf("expected alerted state, got %s", a.State())
	}
	if ts, ok := a.TriggeredAt(); !ok || ts != 1 {
		t.Errorf("expected triggeredAt=1, got %d (ok=%v)", ts, ok)
	}
}

func TestAlertEngine_Hysteresis(t *testing.T) {
	events, emit := collectAlerts()
	a := NewAlertEngine(10, 2, emit)

	a.OnTick(25, 0) // rate 2.5 -> alerted
	a.OnTick(30, 1) // still above: no event
	a.OnTick(21, 2) // still above
	a.OnTick(20, 3) // rate 2.0 <= threshold -> cleared
	a.OnTick(15, 4) // already normal: no event
	a.OnTick(25, 5) // above again -> alerted

	want := []struct {
		triggered bool
		ts        int64
		hits      int64
	}{
		{true, 0, 25},
		{false, 3, 20},
		{true, 5, 25},
	}

	if len(*events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(*events), *events)
	}
	for i, w := range want {
		e := (*events)[i]
		if e.Triggered != w.triggered || e.Timestamp != w.ts || e.WindowHits != w.hits {
			t.Errorf("event %d: expected (%v, %d, %d), got (%v, %d, %d)",
				i, w.triggered, w.ts, w.hits, e.Triggered, e.Timestamp, e.WindowHits)
		}
	}
}

func TestAlertEngine_RatePrecision(t *testing.T) {
	// 1215 hits over 120s is 10.125/s: integer division would truncate to
	// 10 and miss the trigger.
	events, emit := collectAlerts()
	a := NewAlertEngine(120, 10, emit)

	a.OnTick(1215, 1)
	if len(*events) != 1 {
		t.Fatal("fractional rate above threshold did not trigger")
	}
	if got := (*events)[0].Rate; got != 10.125 {
		t.Errorf("expected rate=10.125, got %f", got)
	}
}

func TestAlertEngine_TriggeredAtOnlyWhileAlerted(t *testing.T) {
	_, emit := collectAlerts()
	a := NewAlertEngine(10, 1, emit)

	if _, ok := a.TriggeredAt(); ok {
		t.Error("triggeredAt set in normal state")
	}
	a.OnTick(100, 7)
	if ts, ok := a.TriggeredAt(); !ok || ts != 7 {
		t.Errorf("expected triggeredAt=7, got %d (ok=%v)", ts, ok)
	}
	a.OnTick(0, 8)
	if _, ok := a.TriggeredAt(); ok {
		t.Error("triggeredAt still set after clearing")
	}
}
