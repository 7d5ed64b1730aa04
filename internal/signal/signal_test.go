package signal

import (
	"errors"
	"math"
	"testing"
)

func TestApplyDeadzone(t *testing.T) {
	const center, dz = 32768, 2000

	tests := []struct {
		name   string
		sample int
		want   int
	}{
		{"at center", 32768, 32768},
		{"just inside above", 32768 + 1999, 32768},
		{"just inside below", 32768 - 1999, 32768},
		{"on boundary above", 32768 + 2000, 32768 + 2000},
		{"on boundary below", 32768 - 2000, 32768 - 2000},
		{"far low", 0, 0},
		{"far high", 65535, 65535},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyDeadzone(tt.sample, center, dz); got != tt.want {
				t.Errorf("ApplyDeadzone(%d) = %d, want %d", tt.sample, got, tt.want)
			}
		})
	}
}

func TestApplyDeadzoneLaw(t *testing.T) {
	const center, dz = 32768, 2000
	for s := 0; s <= 65535; s += 97 {
		got := ApplyDeadzone(s, center, dz)
		if math.Abs(float64(s-center)) < dz {
			if got != center {
				t.Fatalf("sample %d inside deadzone mapped to %d", s, got)
			}
		} else if got != s {
			t.Fatalf("sample %d outside deadzone changed to %d", s, got)
		}
	}
}

func TestAverage(t *testing.T) {
	got, err := Average([]uint16{7, 7, 7, 7, 7})
	if err != nil {
		t.Fatalf("average failed: %v", err)
	}
	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	// 1+2+2 = 5, 5/3 truncates to 1
	got, _ = Average([]uint16{1, 2, 2})
	if got != 1 {
		t.Errorf("expected truncated mean 1, got %d", got)
	}

	got, _ = Average([]uint16{65535, 65535, 65534})
	if got != 65534 {
		t.Errorf("expected 65534, got %d", got)
	}
}

func TestAverageZeroSamples(t *testing.T) {
	_, err := Average(nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestSmooth(t *testing.T) {
	if got := Smooth(32768, 32768, 0.1); got != 32768 {
		t.Errorf("center fixed point: got %v", got)
	}

	for _, v := range []float64{0, 1, 100, 1234.5, 65535} {
		if got := Smooth(v, v, 0.1); math.Abs(got-v) > 1e-9 {
			t.Errorf("Smooth(%v, %v) = %v", v, v, got)
		}
	}

	got := Smooth(100, 0, 0.1)
	if math.Abs(got-10) > 1e-9 {
		t.Errorf("expected 10, got %v", got)
	}

	if got := Smooth(42, 7, 1); got != 42 {
		t.Errorf("factor 1 should track input, got %v", got)
	}
}

func TestConditionerCenterFixedPoint(t *testing.T) {
	c := NewConditioner(32768)
	reads := []uint16{32768, 32768, 32768, 32768, 32768}

	v, err := c.Condition(reads, 32768)
	if err != nil {
		t.Fatalf("condition failed: %v", err)
	}
	if v != 32768 {
		t.Errorf("expected 32768, got %v", v)
	}
}

func TestConditionerDeadzonePerRead(t *testing.T) {
	c := NewConditioner(32768)
	c.UseSmoothing = false

	// two reads inside the deadzone snap to center, three outside pass through
	reads := []uint16{33000, 32000, 40000, 40000, 40000}
	v, err := c.Condition(reads, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := float64((32768 + 32768 + 40000*3) / 5)
	if v != want {
		t.Errorf("expected %v, got %v", want, v)
	}
}

func TestConditionerFilterDisabled(t *testing.T) {
	c := NewConditioner(32768)
	c.UseFilter = false
	c.UseDeadzone = false
	c.UseSmoothing = false

	if c.BatchSize() != 1 {
		t.Errorf("expected batch size 1, got %d", c.BatchSize())
	}

	v, err := c.Condition([]uint16{100, 5000}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 100 {
		t.Errorf("expected first read only, got %v", v)
	}
}

func TestConditionerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Conditioner)
	}{
		{"zero samples", func(c *Conditioner) { c.Samples = 0 }},
		{"negative deadzone", func(c *Conditioner) { c.Deadzone = -1 }},
		{"center above sample domain", func(c *Conditioner) { c.Center = 70000 }},
		{"zero factor", func(c *Conditioner) { c.Factor = 0 }},
		{"factor above one", func(c *Conditioner) { c.Factor = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConditioner(32768)
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}

	if err := NewConditioner(32768).Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestMapValue(t *testing.T) {
	got, err := MapValue(32767.5, 0, 65535, 0, 180)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("expected 90, got %v", got)
	}

	got, _ = MapValue(0, 0, 65535, 20, 160)
	if got != 20 {
		t.Errorf("expected 20, got %v", got)
	}

	// no clamping outside the source range
	got, _ = MapValue(2, 0, 1, 0, 10)
	if got != 20 {
		t.Errorf("expected unclamped 20, got %v", got)
	}
}

func TestMapValueDegenerate(t *testing.T) {
	if _, err := MapValue(1, 5, 5, 0, 180); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
	if _, err := NewRange(5, 5, 0, 180); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestRangeRoundTrip(t *testing.T) {
	r, err := NewRange(0, 65535, 20, 160)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := r.Inverse()
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []float64{0, 1, 1000, 32768, 50000.25, 65535} {
		back := inv.Map(r.Map(v))
		if math.Abs(back-v) > 1e-6 {
			t.Errorf("round trip %v -> %v", v, back)
		}

		a, _ := MapValue(v, 0, 65535, 20, 160)
		b, _ := MapValue(a, 20, 160, 0, 65535)
		if math.Abs(b-v) > 1e-6 {
			t.Errorf("MapValue round trip %v -> %v", v, b)
		}
	}
}
