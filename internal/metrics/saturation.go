package metrics

import "github.com/san-kum/servoloop/internal/loop"

// Saturation is the fraction of channel cycles where the slew limiter cut
// the correction.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{name: "saturation"}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(r loop.CycleResult) {
	for _, c := range r.Channels {
		if c.Saturated {
			s.saturated++
		}
		s.samples++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// FaultRate is the fraction of channel cycles with a read or command error.
type FaultRate struct {
	name    string
	faults  int
	samples int
}

func NewFaultRate() *FaultRate {
	return &FaultRate{name: "fault_rate"}
}

func (f *FaultRate) Name() string { return f.name }

func (f *FaultRate) Observe(r loop.CycleResult) {
	for _, c := range r.Channels {
		if c.ReadErr != nil || c.CommandErr != nil {
			f.faults++
		}
		f.samples++
	}
}

func (f *FaultRate) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.faults) / float64(f.samples)
}

func (f *FaultRate) Reset() {
	f.faults = 0
	f.samples = 0
}
