package hardware

import (
	"errors"
	"fmt"
	"io"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/san-kum/servoloop/internal/config"
	"github.com/san-kum/servoloop/internal/loop"
)

// ADC reads one analog input of an ADC.
type ADC interface {
	Read(input int) (loop.RawSample, error)
}

// Board is the arm's input and actuator wiring. Logical input ids index
// ADCChannels, except ButtonInput which reads the button.
type Board struct {
	ADC         ADC
	ADCChannels []int
	Button      Button
	ButtonInput int
	Actuator    loop.Actuator

	closers []func() error
}

// Open initialises the host drivers and every device named in cfg.
func Open(cfg config.HardwareConfig) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	b := &Board{ADCChannels: cfg.ADCChannels, ButtonInput: cfg.ButtonInput}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}
	b.closers = append(b.closers, bus.Close)
	b.ADC = NewADS1115(bus, uint16(cfg.ADCAddr))

	if err := b.openActuator(cfg, bus); err != nil {
		b.Close()
		return nil, err
	}
	if err := b.openButton(cfg); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Board) openActuator(cfg config.HardwareConfig, bus i2c.Bus) error {
	switch cfg.Actuator {
	case "pca9685":
		pca, err := NewPCA9685(bus, uint16(cfg.PCA9685Addr), cfg.PWMFrequency, cfg.PulseMinUS, cfg.PulseMaxUS)
		if err != nil {
			return err
		}
		b.Actuator = pca
		b.closers = append(b.closers, pca.Release)
	case "maestro":
		m, port, err := OpenMaestro(cfg.SerialPort, cfg.SerialBaud, cfg.PulseMinUS, cfg.PulseMaxUS)
		if err != nil {
			return err
		}
		b.Actuator = m
		b.closers = append(b.closers, port.Close)
	default:
		return fmt.Errorf("unknown actuator: %s", cfg.Actuator)
	}
	return nil
}

func (b *Board) openButton(cfg config.HardwareConfig) error {
	if cfg.ButtonPin == "" {
		return nil
	}
	var err error
	switch cfg.GPIOBackend {
	case "rpio":
		b.Button, err = NewRPIOButton(cfg.ButtonPin)
		if err == nil {
			b.closers = append(b.closers, rpio.Close)
		}
	default:
		b.Button, err = NewPeriphButton(cfg.ButtonPin)
	}
	return err
}

func (b *Board) ReadChannel(id int) (loop.RawSample, error) {
	if b.Button != nil && id == b.ButtonInput {
		return b.Button.Read(), nil
	}
	if id < 0 || id >= len(b.ADCChannels) {
		return 0, fmt.Errorf("no input wired for id %d", id)
	}
	return b.ADC.Read(b.ADCChannels[id])
}

// Context wires the board into a control loop.
func (b *Board) Context(sampler loop.Sampler) *loop.HardwareContext {
	return &loop.HardwareContext{Input: b, Actuator: b.Actuator, Sampler: sampler}
}

// Close releases devices in reverse order of opening.
func (b *Board) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

var _ io.Closer = (*Board)(nil)
