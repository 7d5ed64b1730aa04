package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/servoloop/internal/loop"
)

func cycle(channels ...loop.ChannelResult) loop.CycleResult {
	return loop.CycleResult{Channels: channels}
}

func TestTrackingError(t *testing.T) {
	m := NewTrackingError()
	m.Observe(cycle(
		loop.ChannelResult{Target: 100, Angle: 90},
		loop.ChannelResult{Target: 80, Angle: 90},
	))
	m.Observe(cycle(loop.ChannelResult{Target: 90, Angle: 90}, loop.ChannelResult{Target: 90, Angle: 86}))

	if math.Abs(m.Value()-6) > 1e-9 {
		t.Errorf("expected 6, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	m.Observe(cycle(loop.ChannelResult{Correction: -4}, loop.ChannelResult{Correction: 2}))
	if m.Value() != 3 {
		t.Errorf("expected 3, got %f", m.Value())
	}
}

func TestSaturationAndFaults(t *testing.T) {
	s, f := NewSaturation(), NewFaultRate()
	r := cycle(
		loop.ChannelResult{Saturated: true},
		loop.ChannelResult{ReadErr: errors.New("timeout")},
		loop.ChannelResult{CommandErr: errors.New("nack"), Saturated: true},
		loop.ChannelResult{},
	)
	s.Observe(r)
	f.Observe(r)

	if s.Value() != 0.5 {
		t.Errorf("expected saturation 0.5, got %f", s.Value())
	}
	if f.Value() != 0.5 {
		t.Errorf("expected fault rate 0.5, got %f", f.Value())
	}
}

func TestSetObservesCycles(t *testing.T) {
	set := Default()
	var obs loop.Observer = set
	obs.OnCycle(cycle(loop.ChannelResult{Target: 10, Angle: 0, Correction: 10, Saturated: true}))

	v := set.Values()
	if len(v) != 4 {
		t.Fatalf("expected 4 metrics, got %d", len(v))
	}
	if v["tracking_error"] != 10 || v["saturation"] != 1 || v["fault_rate"] != 0 {
		t.Errorf("unexpected values %v", v)
	}

	names := set.Names()
	if names[0] != "control_effort" || names[3] != "tracking_error" {
		t.Errorf("names not sorted: %v", names)
	}

	set.Reset()
	if set.Values()["control_effort"] != 0 {
		t.Error("reset should clear every metric")
	}
}
