package hardware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/san-kum/servoloop/internal/loop"
)

// Button reads a pulled up push button: pressed reads loop.ButtonPressed.
type Button interface {
	Read() loop.RawSample
}

type periphButton struct {
	pin gpio.PinIO
}

// NewPeriphButton configures the named pin as a pulled up input.
func NewPeriphButton(name string) (Button, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio: no pin %s", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s: %w", name, err)
	}
	return &periphButton{pin: pin}, nil
}

func (b *periphButton) Read() loop.RawSample {
	if b.pin.Read() == gpio.Low {
		return loop.ButtonPressed
	}
	return loop.ButtonReleased
}

type rpioButton struct {
	pin rpio.Pin
}

// NewRPIOButton maps /dev/gpiomem and configures the pin. The caller must
// call rpio.Close when done.
func NewRPIOButton(name string) (Button, error) {
	n, err := ParsePinNumber(name)
	if err != nil {
		return nil, err
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: %w", err)
	}
	pin := rpio.Pin(n)
	pin.Input()
	pin.PullUp()
	return &rpioButton{pin: pin}, nil
}

func (b *rpioButton) Read() loop.RawSample {
	if b.pin.Read() == rpio.Low {
		return loop.ButtonPressed
	}
	return loop.ButtonReleased
}

// ParsePinNumber accepts "GPIO16" or "16" and returns the BCM number.
func ParsePinNumber(name string) (uint8, error) {
	s := strings.TrimPrefix(strings.ToUpper(name), "GPIO")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 27 {
		return 0, fmt.Errorf("gpio: bad pin name %q", name)
	}
	return uint8(n), nil
}
