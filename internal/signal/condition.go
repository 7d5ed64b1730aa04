package signal

import (
	"fmt"
	"math"
)

const (
	DefaultSamples  = 5
	DefaultFactor   = 0.1
	DefaultDeadzone = 2000
)

// ApplyDeadzone returns center when sample lies strictly within deadzone of it.
func ApplyDeadzone(sample, center, deadzone int) int {
	d := sample - center
	if d < 0 {
		d = -d
	}
	if d < deadzone {
		return center
	}
	return sample
}

// Average returns the mean of samples, truncated toward zero.
func Average(samples []uint16) (int, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: moving average over zero samples", ErrInvalidConfiguration)
	}
	sum := 0
	for _, s := range samples {
		sum += int(s)
	}
	return sum / len(samples), nil
}

// Smooth blends newValue into previous with weight factor.
func Smooth(newValue, previous, factor float64) float64 {
	return factor*newValue + (1-factor)*previous
}

// Conditioner is the per-channel conditioning chain. Disabled stages pass the
// value through unchanged; with the filter disabled only the first read of a
// batch is used.
type Conditioner struct {
	Center   int
	Deadzone int
	Samples  int
	Factor   float64

	UseDeadzone  bool
	UseFilter    bool
	UseSmoothing bool
}

// NewConditioner returns a conditioner with every stage enabled and the
// default constants.
func NewConditioner(center int) *Conditioner {
	return &Conditioner{
		Center:       center,
		Deadzone:     DefaultDeadzone,
		Samples:      DefaultSamples,
		Factor:       DefaultFactor,
		UseDeadzone:  true,
		UseFilter:    true,
		UseSmoothing: true,
	}
}

func (c *Conditioner) Validate() error {
	if c.UseFilter && c.Samples <= 0 {
		return fmt.Errorf("%w: filter samples must be positive, got %d", ErrInvalidConfiguration, c.Samples)
	}
	if c.UseDeadzone && (c.Center < 0 || c.Center > math.MaxUint16) {
		return fmt.Errorf("%w: deadzone center %d outside the sample domain", ErrInvalidConfiguration, c.Center)
	}
	if c.UseDeadzone && c.Deadzone < 0 {
		return fmt.Errorf("%w: deadzone must not be negative, got %d", ErrInvalidConfiguration, c.Deadzone)
	}
	if c.UseSmoothing && (c.Factor <= 0 || c.Factor > 1) {
		return fmt.Errorf("%w: smoothing factor must be in (0, 1], got %g", ErrInvalidConfiguration, c.Factor)
	}
	return nil
}

// BatchSize is the number of reads Condition expects per cycle.
func (c *Conditioner) BatchSize() int {
	if c.UseFilter {
		return c.Samples
	}
	return 1
}

// Condition runs reads through deadzone, average and smoothing and returns
// the value that becomes the next call's previous.
func (c *Conditioner) Condition(reads []uint16, previous float64) (float64, error) {
	if len(reads) == 0 {
		return previous, fmt.Errorf("%w: no samples to condition", ErrInvalidConfiguration)
	}
	if !c.UseFilter {
		reads = reads[:1]
	}

	batch := reads
	if c.UseDeadzone {
		batch = make([]uint16, len(reads))
		for i, r := range reads {
			batch[i] = uint16(ApplyDeadzone(int(r), c.Center, c.Deadzone))
		}
	}

	mean, err := Average(batch)
	if err != nil {
		return previous, err
	}

	if !c.UseSmoothing {
		return float64(mean), nil
	}
	return Smooth(float64(mean), previous, c.Factor), nil
}
