package signal

import "fmt"

// MapValue linearly remaps value from [fromLow, fromHigh] to [toLow, toHigh].
// The result is not clamped.
func MapValue(value, fromLow, fromHigh, toLow, toHigh float64) (float64, error) {
	if fromHigh == fromLow {
		return 0, fmt.Errorf("%w: from range [%g, %g]", ErrDivisionByZero, fromLow, fromHigh)
	}
	return toLow + (value-fromLow)*(toHigh-toLow)/(fromHigh-fromLow), nil
}

// Range is a validated mapping between a sample domain and an angle domain.
type Range struct {
	FromLow, FromHigh float64
	ToLow, ToHigh     float64
}

func NewRange(fromLow, fromHigh, toLow, toHigh float64) (Range, error) {
	r := Range{FromLow: fromLow, FromHigh: fromHigh, ToLow: toLow, ToHigh: toHigh}
	if fromHigh == fromLow {
		return r, fmt.Errorf("%w: from range [%g, %g]", ErrDivisionByZero, fromLow, fromHigh)
	}
	return r, nil
}

// Map applies the mapping. r must come from NewRange.
func (r Range) Map(value float64) float64 {
	return r.ToLow + (value-r.FromLow)*(r.ToHigh-r.ToLow)/(r.FromHigh-r.FromLow)
}

// Inverse returns the mapping back from the angle domain.
func (r Range) Inverse() (Range, error) {
	return NewRange(r.ToLow, r.ToHigh, r.FromLow, r.FromHigh)
}
