package metrics

import (
	"math"

	"github.com/san-kum/servoloop/internal/loop"
)

// TrackingError is the mean absolute distance between target and commanded
// angle over every channel and cycle.
type TrackingError struct {
	name    string
	sum     float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{name: "tracking_error"}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(r loop.CycleResult) {
	for _, c := range r.Channels {
		e.sum += math.Abs(c.Target - c.Angle)
		e.samples++
	}
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *TrackingError) Reset() {
	e.sum = 0
	e.samples = 0
}

// ControlEffort is the mean absolute correction requested by the PID stage.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(r loop.CycleResult) {
	for _, ch := range r.Channels {
		c.sum += math.Abs(ch.Correction)
		c.samples++
	}
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
