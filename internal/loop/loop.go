package loop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/servoloop/internal/control"
	"github.com/san-kum/servoloop/internal/signal"
)

// Logger is the subset of logging.Logger the loop writes to.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Warningf(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{})   {}
func (nopLogger) Warningf(string, ...interface{}) {}

type Option func(*Loop)

func WithLogger(log Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock sets the timestamp source for cycle results.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.AddObserver(o) }
}

type channelRuntime struct {
	ch     Channel
	cond   *signal.Conditioner
	mapper signal.Range
	pid    *control.PID
	slew   *control.SlewLimiter
	state  ChannelState
}

type Loop struct {
	hw        HardwareContext
	period    time.Duration
	channels  []*channelRuntime
	observers []Observer
	log       Logger
	now       func() time.Time
	cycle     int
}

// New validates cfg and builds a loop over hw. Any configuration problem is
// reported as ErrInvalidConfiguration before a single cycle can run.
func New(cfg Config, hw *HardwareContext, opts ...Option) (*Loop, error) {
	if hw == nil || hw.Input == nil || hw.Actuator == nil {
		return nil, configError("", errors.New("hardware context needs an input and an actuator"))
	}
	if cfg.CyclePeriod <= 0 {
		return nil, configError("", fmt.Errorf("cycle period must be positive, got %v", cfg.CyclePeriod))
	}
	if len(cfg.Channels) == 0 {
		return nil, configError("", errors.New("no channels configured"))
	}

	sampleMax := cfg.SampleMax
	if sampleMax == 0 {
		sampleMax = SampleMax
	}
	if sampleMax < 1 || sampleMax > math.MaxUint16 {
		return nil, configError("", fmt.Errorf("sample max %d outside [1, %d]", sampleMax, math.MaxUint16))
	}
	center := cfg.SampleCenter
	if center == 0 {
		center = SampleCenter
	}
	if center < 0 || center > sampleMax {
		return nil, configError("", fmt.Errorf("sample center %d outside [0, %d]", center, sampleMax))
	}

	l := &Loop{
		hw:       *hw,
		period:   cfg.CyclePeriod,
		channels: make([]*channelRuntime, 0, len(cfg.Channels)),
		log:      nopLogger{},
		now:      time.Now,
	}
	if l.hw.Sampler == nil {
		l.hw.Sampler = RepeatSampler{}
	}

	seen := make(map[int]string)
	for _, ch := range cfg.Channels {
		if prev, ok := seen[ch.ID]; ok {
			return nil, configError(ch.Name, fmt.Errorf("actuator id %d already used by %s", ch.ID, prev))
		}
		seen[ch.ID] = ch.Name

		rt, err := newChannelRuntime(ch, sampleMax, center)
		if err != nil {
			return nil, configError(ch.Name, err)
		}
		l.channels = append(l.channels, rt)
	}

	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func newChannelRuntime(ch Channel, sampleMax, center int) (*channelRuntime, error) {
	if ch.ID < 0 {
		return nil, fmt.Errorf("actuator id must not be negative, got %d", ch.ID)
	}
	if ch.AngleMin > ch.AngleMax {
		return nil, fmt.Errorf("angle min %g > max %g", ch.AngleMin, ch.AngleMax)
	}
	if ch.AngleCenter < ch.AngleMin || ch.AngleCenter > ch.AngleMax {
		return nil, fmt.Errorf("angle center %g outside [%g, %g]", ch.AngleCenter, ch.AngleMin, ch.AngleMax)
	}

	cond := &signal.Conditioner{
		Center:       center,
		Deadzone:     ch.Deadzone,
		Samples:      ch.FilterSamples,
		Factor:       ch.SmoothingFactor,
		UseDeadzone:  ch.Stages.Deadzone && ch.Kind == KindAxis,
		UseFilter:    ch.Stages.Filter && ch.Kind != KindButton,
		UseSmoothing: ch.Stages.Smoothing && ch.Kind != KindButton,
	}
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	mapper, err := signal.NewRange(0, float64(sampleMax), ch.AngleMin, ch.AngleMax)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDivisionByZero, err)
	}

	slew := control.NewSlewLimiter(ch.MaxSpeed, ch.AngleMin, ch.AngleMax)
	slew.RateLimit = ch.Stages.SlewLimit
	if err := slew.Validate(); err != nil {
		return nil, err
	}
	if ch.Gains.IntegralLimit < 0 {
		return nil, fmt.Errorf("integral limit must not be negative, got %g", ch.Gains.IntegralLimit)
	}

	state := ChannelState{
		LastAngle:    ch.AngleCenter,
		LastFiltered: float64(center),
	}
	if ch.Kind == KindButton {
		state.LastFiltered = float64(ButtonReleased)
	}

	return &channelRuntime{
		ch:     ch,
		cond:   cond,
		mapper: mapper,
		pid:    control.NewPID(ch.Gains),
		slew:   slew,
		state:  state,
	}, nil
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) Period() time.Duration { return l.period }

// Cycles returns the number of completed cycles.
func (l *Loop) Cycles() int { return l.cycle }

// Channels returns the static channel configuration in processing order.
func (l *Loop) Channels() []Channel {
	out := make([]Channel, len(l.channels))
	for i, rt := range l.channels {
		out[i] = rt.ch
	}
	return out
}

// State returns a snapshot of the runtime state of the channel with actuator id.
func (l *Loop) State(id int) (ChannelState, bool) {
	for _, rt := range l.channels {
		if rt.ch.ID == id {
			s := rt.state
			s.PIDIntegral = rt.pid.Integral()
			s.PIDPrevError = rt.pid.PreviousError()
			return s, true
		}
	}
	return ChannelState{}, false
}

// Step runs exactly one cycle across all channels and notifies observers.
func (l *Loop) Step() CycleResult {
	result := CycleResult{
		Cycle:    l.cycle,
		Time:     l.now(),
		Channels: make([]ChannelResult, 0, len(l.channels)),
	}

	for _, rt := range l.channels {
		result.Channels = append(result.Channels, l.stepChannel(rt))
	}
	l.cycle++

	for _, obs := range l.observers {
		obs.OnCycle(result)
	}
	return result
}

func (l *Loop) stepChannel(rt *channelRuntime) ChannelResult {
	ch := rt.ch
	res := ChannelResult{ID: ch.ID, Name: ch.Name}

	value, err := l.acquire(rt)
	if err != nil {
		// carry forward: hold the previous conditioned value
		rt.state.ReadFailures++
		res.ReadErr = &ChannelError{Channel: ch.Name, Cycle: l.cycle, Kind: ErrReadFailure, Wrapped: err}
		l.log.Warningf("%v (holding %.2f)", res.ReadErr, rt.state.LastFiltered)
		value = rt.state.LastFiltered
	}
	rt.state.LastFiltered = value
	res.Smoothed = value

	target := rt.target(value)
	last := rt.state.LastAngle

	var correction float64
	if ch.Stages.PID {
		correction = rt.pid.Update(target, last)
	} else {
		correction = target - last
	}

	next := rt.slew.Apply(last, correction)
	rt.state.LastAngle = next

	res.Target = target
	res.Correction = correction
	res.Saturated = rt.slew.Saturated(correction)
	res.Angle = next

	if err := l.hw.Actuator.SetActuatorPosition(ch.ID, next); err != nil {
		rt.state.CommandErrors++
		res.CommandErr = &ChannelError{Channel: ch.Name, Cycle: l.cycle, Kind: ErrActuatorCommand, Wrapped: err}
		l.log.Warningf("%v", res.CommandErr)
	}
	return res
}

func (l *Loop) acquire(rt *channelRuntime) (float64, error) {
	reads, err := l.hw.Sampler.SampleBatch(l.hw.Input, rt.ch.Input, rt.cond.BatchSize())
	if err != nil {
		return 0, err
	}
	if len(reads) == 0 {
		return 0, errors.New("sampler returned no samples")
	}

	if rt.ch.Kind == KindButton {
		return float64(reads[0]), nil
	}
	return rt.cond.Condition(reads, rt.state.LastFiltered)
}

func (rt *channelRuntime) target(value float64) float64 {
	if rt.ch.Kind != KindButton {
		return rt.mapper.Map(value)
	}

	pressed := RawSample(value) == ButtonPressed
	if pressed == rt.ch.Invert {
		return rt.ch.AngleMax
	}
	return rt.ch.AngleMin
}

// RunCycles runs n cycles back to back without waiting for the period.
func (l *Loop) RunCycles(ctx context.Context, n int) ([]CycleResult, error) {
	if n < 0 {
		return nil, fmt.Errorf("cycle count must not be negative, got %d", n)
	}
	results := make([]CycleResult, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}
		results = append(results, l.Step())
	}
	return results, nil
}

// Run cycles at the configured period until ctx is done. A cycle always
// completes before the next one starts; ticks missed by a slow cycle are
// dropped.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	l.log.Debugf("control loop started: %d channels, period %v", len(l.channels), l.period)
	for {
		l.Step()

		select {
		case <-ctx.Done():
			l.log.Debugf("control loop stopped after %d cycles", l.cycle)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
