package hardware

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

const (
	maestroSetTarget = 0x84
	maestroChannels  = 24
)

// EncodeTarget builds a compact protocol Set Target command. target is in
// quarter microseconds and split into two 7 bit bytes.
func EncodeTarget(channel uint8, target uint16) []byte {
	return []byte{maestroSetTarget, channel, byte(target & 0x7f), byte((target >> 7) & 0x7f)}
}

// Maestro commands servos on a Pololu Maestro over its serial port.
type Maestro struct {
	port  io.Writer
	minUS float64
	maxUS float64
}

func NewMaestro(port io.Writer, minUS, maxUS float64) *Maestro {
	return &Maestro{port: port, minUS: minUS, maxUS: maxUS}
}

// OpenMaestro opens the serial port at name. The caller closes the returned
// port.
func OpenMaestro(name string, baud int, minUS, maxUS float64) (*Maestro, io.Closer, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: 100 * time.Millisecond})
	if err != nil {
		return nil, nil, fmt.Errorf("maestro on %s: %w", name, err)
	}
	return NewMaestro(port, minUS, maxUS), port, nil
}

func (m *Maestro) SetActuatorPosition(id int, degrees float64) error {
	if id < 0 || id >= maestroChannels {
		return fmt.Errorf("maestro: no channel %d", id)
	}
	target := QuarterMicros(PulseWidth(degrees, m.minUS, m.maxUS))
	_, err := m.port.Write(EncodeTarget(uint8(id), target))
	return err
}
