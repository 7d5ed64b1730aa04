// Package metrics summarises a run of the control loop.
package metrics

import (
	"sort"

	"github.com/san-kum/servoloop/internal/loop"
)

type Metric interface {
	Name() string
	Observe(r loop.CycleResult)
	Value() float64
	Reset()
}

// Set feeds every cycle to its metrics. It is a loop.Observer.
type Set struct {
	metrics []Metric
}

func NewSet(metrics ...Metric) *Set {
	return &Set{metrics: metrics}
}

// Default is tracking error, control effort, saturation ratio and fault rate.
func Default() *Set {
	return NewSet(NewTrackingError(), NewControlEffort(), NewSaturation(), NewFaultRate())
}

func (s *Set) OnCycle(r loop.CycleResult) {
	for _, m := range s.metrics {
		m.Observe(r)
	}
}

func (s *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Names returns metric names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.metrics))
	for _, m := range s.metrics {
		names = append(names, m.Name())
	}
	sort.Strings(names)
	return names
}

func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}
