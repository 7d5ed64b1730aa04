package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
)

const pcaChannels = 16

// PCA9685 commands servos on a 16 channel PWM board over I2C.
type PCA9685 struct {
	dev    *pca9685.Dev
	freqHz int
	minUS  float64
	maxUS  float64
}

func NewPCA9685(bus i2c.Bus, addr uint16, freqHz int, minUS, maxUS float64) (*PCA9685, error) {
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("pca9685 at %#x: %w", addr, err)
	}
	if err := dev.SetPwmFreq(physic.Frequency(freqHz) * physic.Hertz); err != nil {
		return nil, fmt.Errorf("pca9685 frequency: %w", err)
	}
	return &PCA9685{dev: dev, freqHz: freqHz, minUS: minUS, maxUS: maxUS}, nil
}

func (p *PCA9685) SetActuatorPosition(id int, degrees float64) error {
	if id < 0 || id >= pcaChannels {
		return fmt.Errorf("pca9685: no channel %d", id)
	}
	off := PulseTicks(PulseWidth(degrees, p.minUS, p.maxUS), p.freqHz)
	return p.dev.SetPwm(id, 0, off)
}

// Release stops the pulse on every channel so the servos go limp.
func (p *PCA9685) Release() error {
	return p.dev.SetAllPwm(0, 0)
}
