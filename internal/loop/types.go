package loop

import (
	"fmt"
	"strings"
	"time"

	"github.com/san-kum/servoloop/internal/control"
)

// RawSample is one unsigned reading in [0, SampleMax].
type RawSample = uint16

const (
	SampleMax    = 65535
	SampleCenter = 32768

	// Buttons are wired active low with a pull-up.
	ButtonPressed  RawSample = 0
	ButtonReleased RawSample = 1

	DefaultCyclePeriod = 50 * time.Millisecond
)

type Kind int

const (
	KindAxis Kind = iota
	KindPot
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindAxis:
		return "axis"
	case KindPot:
		return "pot"
	case KindButton:
		return "button"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "axis", "joystick":
		return KindAxis, nil
	case "pot", "potentiometer":
		return KindPot, nil
	case "button":
		return KindButton, nil
	}
	return 0, fmt.Errorf("unknown channel kind: %s", s)
}

type Input interface {
	ReadChannel(id int) (RawSample, error)
}

type Actuator interface {
	SetActuatorPosition(id int, degrees float64) error
}

// Sampler acquires n raw samples from one logical input.
type Sampler interface {
	SampleBatch(in Input, id, n int) ([]RawSample, error)
}

type Observer interface {
	OnCycle(r CycleResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r CycleResult)

func (f ObserverFunc) OnCycle(r CycleResult) { f(r) }

// HardwareContext holds the I/O collaborators of a loop. A nil Sampler
// defaults to RepeatSampler.
type HardwareContext struct {
	Input    Input
	Actuator Actuator
	Sampler  Sampler
}

// Stages toggles each processing step of a channel.
type Stages struct {
	Deadzone  bool
	Filter    bool
	Smoothing bool
	PID       bool
	SlewLimit bool
}

func AllStages() Stages {
	return Stages{Deadzone: true, Filter: true, Smoothing: true, PID: true, SlewLimit: true}
}

// Channel is the static configuration of one controlled actuator.
type Channel struct {
	ID    int
	Name  string
	Kind  Kind
	Input int

	AngleMin    float64
	AngleMax    float64
	AngleCenter float64
	MaxSpeed    float64

	Gains control.Gains

	Deadzone        int
	FilterSamples   int
	SmoothingFactor float64

	// Invert maps a pressed button to AngleMax instead of AngleMin.
	Invert bool

	Stages Stages
}

// ChannelState is a snapshot of a channel's runtime data.
type ChannelState struct {
	LastAngle     float64
	LastFiltered  float64
	PIDIntegral   float64
	PIDPrevError  float64
	ReadFailures  int
	CommandErrors int
}

type Config struct {
	CyclePeriod  time.Duration
	SampleMax    int
	SampleCenter int
	Channels     []Channel
}

func DefaultConfig() Config {
	return Config{
		CyclePeriod:  DefaultCyclePeriod,
		SampleMax:    SampleMax,
		SampleCenter: SampleCenter,
	}
}

type ChannelResult struct {
	ID         int
	Name       string
	Angle      float64
	Target     float64
	Smoothed   float64
	Correction float64
	Saturated  bool
	ReadErr    error
	CommandErr error
}

type ChannelAngle struct {
	ID    int
	Angle float64
}

type CycleResult struct {
	Cycle    int
	Time     time.Time
	Channels []ChannelResult
}

// Angles returns the ordered (id, angle) pairs of the cycle.
func (r CycleResult) Angles() []ChannelAngle {
	out := make([]ChannelAngle, len(r.Channels))
	for i, c := range r.Channels {
		out[i] = ChannelAngle{ID: c.ID, Angle: c.Angle}
	}
	return out
}

// Clone returns a copy that does not share the channel slice.
func (r CycleResult) Clone() CycleResult {
	c := r
	c.Channels = make([]ChannelResult, len(r.Channels))
	copy(c.Channels, r.Channels)
	return c
}
