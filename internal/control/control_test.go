package control

import (
	"errors"
	"math"
	"testing"
)

func TestPIDProportionalOnly(t *testing.T) {
	pid := NewPID(Gains{Kp: 1})

	cases := []struct{ setpoint, current float64 }{
		{180, 90}, {0, 90}, {90, 90}, {12.5, -3.25},
	}
	for _, c := range cases {
		if got := pid.Update(c.setpoint, c.current); got != c.setpoint-c.current {
			t.Errorf("Update(%v, %v) = %v, want %v", c.setpoint, c.current, got, c.setpoint-c.current)
		}
	}
}

func TestPIDTerms(t *testing.T) {
	pid := NewPID(Gains{Kp: 0.5, Ki: 0.1, Kd: 0.1})

	// error 10: p=5, i=1, d=1
	u := pid.Update(10, 0)
	if math.Abs(u-7) > 1e-12 {
		t.Errorf("first update: expected 7, got %v", u)
	}

	// error 4: p=2, i=1.4, d=-0.6
	u = pid.Update(10, 6)
	if math.Abs(u-2.8) > 1e-12 {
		t.Errorf("second update: expected 2.8, got %v", u)
	}

	if pid.Integral() != 14 {
		t.Errorf("expected integral 14, got %v", pid.Integral())
	}
	if pid.PreviousError() != 4 {
		t.Errorf("expected previous error 4, got %v", pid.PreviousError())
	}
}

func TestPIDIntegralUnboundedByDefault(t *testing.T) {
	pid := NewPID(Gains{Ki: 1})
	for i := 0; i < 1000; i++ {
		pid.Update(100, 0)
	}
	if pid.Integral() != 100000 {
		t.Errorf("expected integral 100000, got %v", pid.Integral())
	}
}

func TestPIDIntegralLimit(t *testing.T) {
	pid := NewPID(Gains{Ki: 1, IntegralLimit: 50})
	for i := 0; i < 10; i++ {
		pid.Update(100, 0)
	}
	if pid.Integral() != 50 {
		t.Errorf("expected clamped integral 50, got %v", pid.Integral())
	}
	for i := 0; i < 10; i++ {
		pid.Update(-100, 0)
	}
	if pid.Integral() != -50 {
		t.Errorf("expected clamped integral -50, got %v", pid.Integral())
	}
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(Gains{Kp: 1, Ki: 1, Kd: 1})
	pid.Update(5, 0)
	pid.Reset()
	if pid.Integral() != 0 || pid.PreviousError() != 0 {
		t.Error("reset should clear state")
	}
}

func TestPIDParams(t *testing.T) {
	pid := NewPID(Gains{Kp: 1})
	if err := pid.SetParam("Ki", 0.25); err != nil {
		t.Fatal(err)
	}
	if pid.GetParams()["Ki"] != 0.25 {
		t.Error("SetParam did not update Ki")
	}
	if err := pid.SetParam("bogus", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if err := pid.SetParam("IntegralLimit", -1); err == nil {
		t.Error("expected error for negative integral limit")
	}
}

func TestLimitRateThenRange(t *testing.T) {
	tests := []struct {
		name             string
		last, out, speed float64
		lo, hi, want     float64
	}{
		{"small move passes", 90, 1.5, 2, 0, 180, 91.5},
		{"rate clamp up", 90, 50, 2, 0, 180, 92},
		{"rate clamp down", 90, -50, 2, 0, 180, 88},
		{"range clamp high", 179, 5, 2, 0, 180, 180},
		{"range clamp low", 21, -5, 2, 20, 160, 20},
		// rate then range: 200+2 -> 180; range then rate would give 182
		{"order matters", 200, 10, 2, 0, 180, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Limit(tt.last, tt.out, tt.speed, tt.lo, tt.hi); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLimitBounds(t *testing.T) {
	outputs := []float64{-1e9, -1000, -2.5, -0.1, 0, 0.1, 2.5, 1000, 1e9}
	lasts := []float64{20, 21, 90, 159, 160}

	for _, last := range lasts {
		for _, out := range outputs {
			got := Limit(last, out, 2, 20, 160)
			if got < 20 || got > 160 {
				t.Errorf("Limit(%v, %v) = %v outside [20, 160]", last, out, got)
			}
			if math.Abs(got-last) > 2 {
				t.Errorf("Limit(%v, %v) = %v moved more than 2", last, out, got)
			}
		}
	}
}

func TestSlewLimiter(t *testing.T) {
	s := NewSlewLimiter(2, 0, 180)
	if got := s.Apply(90, 10); got != 92 {
		t.Errorf("expected 92, got %v", got)
	}
	if !s.Saturated(10) || s.Saturated(1) {
		t.Error("saturation mismatch")
	}

	s.RateLimit = false
	if got := s.Apply(90, 10); got != 100 {
		t.Errorf("expected 100 without rate limit, got %v", got)
	}
	if got := s.Apply(90, 500); got != 180 {
		t.Errorf("expected range clamp 180, got %v", got)
	}
	if s.Saturated(10) {
		t.Error("rate limit disabled should never saturate")
	}
}

func TestSlewLimiterValidate(t *testing.T) {
	if err := NewSlewLimiter(2, 180, 0).Validate(); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("expected ErrInvalidBounds for min > max, got %v", err)
	}
	if err := NewSlewLimiter(0, 0, 180).Validate(); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("expected ErrInvalidBounds for zero speed, got %v", err)
	}
	if err := NewSlewLimiter(2, 0, 180).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
