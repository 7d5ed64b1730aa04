package hardware

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/san-kum/servoloop/internal/loop"
)

func TestPulseWidth(t *testing.T) {
	tests := []struct {
		degrees float64
		want    float64
	}{
		{0, 500},
		{90, 1500},
		{180, 2500},
		{-10, 500},
		{200, 2500},
	}
	for _, tt := range tests {
		if got := PulseWidth(tt.degrees, 500, 2500); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PulseWidth(%v) = %v, want %v", tt.degrees, got, tt.want)
		}
	}
}

func TestPulseTicks(t *testing.T) {
	// 20 ms period at 50 Hz, 4096 steps
	if got := PulseTicks(1500, 50); got != 307 {
		t.Errorf("expected 307 ticks for 1.5 ms, got %d", got)
	}
	if got := PulseTicks(500, 50); got != 102 {
		t.Errorf("expected 102 ticks for 0.5 ms, got %d", got)
	}
	if got := PulseTicks(1e6, 50); got != 4095 {
		t.Errorf("expected clamp to 4095, got %d", got)
	}
}

func TestEncodeTarget(t *testing.T) {
	// 1500 us is 6000 quarter microseconds: 0x70 low, 0x2E high
	got := EncodeTarget(2, QuarterMicros(1500))
	want := []byte{0x84, 0x02, 0x70, 0x2E}
	if !bytes.Equal(got, want) {
		t.Errorf("expected % x, got % x", want, got)
	}
}

func TestMaestro(t *testing.T) {
	var buf bytes.Buffer
	m := NewMaestro(&buf, 500, 2500)

	if err := m.SetActuatorPosition(0, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), EncodeTarget(0, 2000)) {
		t.Errorf("unexpected frame % x", buf.Bytes())
	}
	if err := m.SetActuatorPosition(24, 90); err == nil {
		t.Error("expected error for channel out of range")
	}
}

func TestConfigWord(t *testing.T) {
	if got := configWord(0); got != 0xC3E3 {
		t.Errorf("input 0: expected 0xC3E3, got %#x", got)
	}
	if got := configWord(3); got != 0xF3E3 {
		t.Errorf("input 3: expected 0xF3E3, got %#x", got)
	}
}

func TestScaleSingleEnded(t *testing.T) {
	tests := map[int16]loop.RawSample{-5: 0, 0: 0, 32767: 65535, 16384: 32768}
	for raw, want := range tests {
		if got := scaleSingleEnded(raw); got != want {
			t.Errorf("scale(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestADS1115Read(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x48, W: []byte{0x01, 0xD3, 0xE3}},
			{Addr: 0x48, W: []byte{0x00}, R: []byte{0x7F, 0xFF}},
		},
	}
	adc := NewADS1115(bus, 0x48)
	adc.Delay = 0

	v, err := adc.Read(1)
	if err != nil {
		t.Fatal(err)
	}
	if v != loop.SampleMax {
		t.Errorf("expected full scale, got %d", v)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unexpected bus traffic: %v", err)
	}

	if _, err := adc.Read(4); err == nil {
		t.Error("expected error for input 4")
	}
}

func TestParsePinNumber(t *testing.T) {
	for _, name := range []string{"GPIO16", "gpio16", "16"} {
		if n, err := ParsePinNumber(name); err != nil || n != 16 {
			t.Errorf("%s: got %d, %v", name, n, err)
		}
	}
	for _, name := range []string{"", "GPIO", "GPIO40", "PA3"} {
		if _, err := ParsePinNumber(name); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

type fakeADC struct{ values map[int]loop.RawSample }

func (f fakeADC) Read(input int) (loop.RawSample, error) {
	v, ok := f.values[input]
	if !ok {
		return 0, errors.New("conversion timeout")
	}
	return v, nil
}

type fakeButton loop.RawSample

func (b fakeButton) Read() loop.RawSample { return loop.RawSample(b) }

func TestBoardRouting(t *testing.T) {
	b := &Board{
		ADC:         fakeADC{values: map[int]loop.RawSample{0: 10, 1: 20, 3: 30}},
		ADCChannels: []int{0, 1, 3},
		Button:      fakeButton(loop.ButtonPressed),
		ButtonInput: 3,
	}

	want := map[int]loop.RawSample{0: 10, 1: 20, 2: 30, 3: loop.ButtonPressed}
	for id, w := range want {
		v, err := b.ReadChannel(id)
		if err != nil || v != w {
			t.Errorf("input %d: got %d, %v, want %d", id, v, err, w)
		}
	}
	if _, err := b.ReadChannel(7); err == nil {
		t.Error("expected error for unwired input")
	}

	closed := 0
	b.closers = []func() error{
		func() error { closed++; return nil },
		func() error { closed++; return errors.New("busy") },
	}
	if err := b.Close(); err == nil || closed != 2 {
		t.Errorf("close should run every closer and report errors (closed %d, err %v)", closed, err)
	}
}
