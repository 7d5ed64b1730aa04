package control

import (
	"errors"
	"fmt"
)

var ErrInvalidBounds = errors.New("control: invalid slew bounds")

// Limit moves lastAngle by pidOutput clamped to ±maxSpeed, then clamps the
// result to [angleMin, angleMax]. The two clamps are not interchangeable.
func Limit(lastAngle, pidOutput, maxSpeed, angleMin, angleMax float64) float64 {
	delta := clamp(pidOutput, -maxSpeed, maxSpeed)
	return clamp(lastAngle+delta, angleMin, angleMax)
}

// SlewLimiter carries one channel's bounds. With RateLimit off only the range
// clamp applies.
type SlewLimiter struct {
	MaxSpeed  float64
	Min       float64
	Max       float64
	RateLimit bool
}

func NewSlewLimiter(maxSpeed, angleMin, angleMax float64) *SlewLimiter {
	return &SlewLimiter{
		MaxSpeed:  maxSpeed,
		Min:       angleMin,
		Max:       angleMax,
		RateLimit: true,
	}
}

func (s *SlewLimiter) Validate() error {
	if s.Min > s.Max {
		return fmt.Errorf("%w: angle min %g > max %g", ErrInvalidBounds, s.Min, s.Max)
	}
	if s.RateLimit && s.MaxSpeed <= 0 {
		return fmt.Errorf("%w: max speed must be positive, got %g", ErrInvalidBounds, s.MaxSpeed)
	}
	return nil
}

// Apply returns the bounded angle following lastAngle.
func (s *SlewLimiter) Apply(lastAngle, pidOutput float64) float64 {
	if !s.RateLimit {
		return clamp(lastAngle+pidOutput, s.Min, s.Max)
	}
	return Limit(lastAngle, pidOutput, s.MaxSpeed, s.Min, s.Max)
}

// Saturated reports whether pidOutput would be cut by the rate clamp.
func (s *SlewLimiter) Saturated(pidOutput float64) bool {
	return s.RateLimit && (pidOutput > s.MaxSpeed || pidOutput < -s.MaxSpeed)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
