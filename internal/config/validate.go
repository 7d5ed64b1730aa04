package config

import (
	"fmt"

	"github.com/san-kum/servoloop/internal/loop"
)

type nopIO struct{}

func (nopIO) ReadChannel(int) (loop.RawSample, error) { return 0, nil }
func (nopIO) SetActuatorPosition(int, float64) error  { return nil }

// Validate reports every configuration error loop.New would reject, plus
// hardware settings, without touching any device.
func (c *Config) Validate() error {
	lc, err := c.ToLoop()
	if err != nil {
		return err
	}
	if _, err := loop.ParseSampler(c.Sampler); err != nil {
		return fmt.Errorf("%w: %w", loop.ErrInvalidConfiguration, err)
	}
	if _, err := loop.New(lc, &loop.HardwareContext{Input: nopIO{}, Actuator: nopIO{}}); err != nil {
		return err
	}
	if err := c.Hardware.validate(c.Channels); err != nil {
		return fmt.Errorf("%w: hardware: %w", loop.ErrInvalidConfiguration, err)
	}
	return nil
}

func (h HardwareConfig) validate(channels []ChannelConfig) error {
	switch h.Actuator {
	case "pca9685":
		if h.PWMFrequency <= 0 {
			return fmt.Errorf("pwm frequency must be positive, got %d", h.PWMFrequency)
		}
		for _, ch := range channels {
			if ch.ID > 15 {
				return fmt.Errorf("channel %s: pca9685 has 16 outputs, got id %d", ch.Name, ch.ID)
			}
		}
	case "maestro":
		if h.SerialPort == "" {
			return fmt.Errorf("maestro actuator needs a serial port")
		}
		for _, ch := range channels {
			if ch.ID > 23 {
				return fmt.Errorf("channel %s: maestro has at most 24 outputs, got id %d", ch.Name, ch.ID)
			}
		}
	default:
		return fmt.Errorf("unknown actuator: %s", h.Actuator)
	}

	if h.PulseMinUS <= 0 || h.PulseMaxUS <= h.PulseMinUS {
		return fmt.Errorf("pulse range [%g, %g] us is invalid", h.PulseMinUS, h.PulseMaxUS)
	}
	for i, ch := range h.ADCChannels {
		if ch < 0 || ch > 3 {
			return fmt.Errorf("adc channel for input %d must be 0..3, got %d", i, ch)
		}
	}
	switch h.GPIOBackend {
	case "periph", "rpio":
	default:
		return fmt.Errorf("unknown gpio backend: %s", h.GPIOBackend)
	}
	return nil
}
