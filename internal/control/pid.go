package control

import (
	"fmt"
	"math"
)

// Gains are the constant PID coefficients of one channel. IntegralLimit
// bounds the accumulated error when positive; zero leaves it unbounded.
type Gains struct {
	Kp            float64
	Ki            float64
	Kd            float64
	IntegralLimit float64
}

// PID tracks a setpoint once per control cycle. The time step is implicit:
// integral and derivative are per-cycle sums and differences.
type PID struct {
	Kp            float64
	Ki            float64
	Kd            float64
	IntegralLimit float64
	integral      float64
	prevErr       float64
}

func NewPID(g Gains) *PID {
	return &PID{
		Kp:            g.Kp,
		Ki:            g.Ki,
		Kd:            g.Kd,
		IntegralLimit: g.IntegralLimit,
	}
}

// Update returns the correction for the current cycle.
func (p *PID) Update(setpoint, current float64) float64 {
	err := setpoint - current

	p.integral += err
	if p.IntegralLimit > 0 {
		p.integral = math.Max(-p.IntegralLimit, math.Min(p.integral, p.IntegralLimit))
	}
	derivative := err - p.prevErr

	u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

	p.prevErr = err
	return u
}

// Integral returns the accumulated error.
func (p *PID) Integral() float64 { return p.integral }

// PreviousError returns the error seen by the last Update.
func (p *PID) PreviousError() float64 { return p.prevErr }

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
}

// GetParams returns tunable parameters
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            p.Kp,
		"Ki":            p.Ki,
		"Kd":            p.Kd,
		"IntegralLimit": p.IntegralLimit,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "IntegralLimit":
		if value < 0 {
			return fmt.Errorf("integral limit must not be negative, got %g", value)
		}
		p.IntegralLimit = value
	default:
		return fmt.Errorf("unknown pid parameter: %s", name)
	}
	return nil
}
