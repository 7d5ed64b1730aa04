package hardware

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"

	"github.com/san-kum/servoloop/internal/loop"
)

// ADS1115 registers
const (
	ads1115Conversion = 0x00
	ads1115Config     = 0x01
)

// Config register fields for a single shot, single ended read at ±4.096 V
// and 860 samples per second with the comparator disabled.
const (
	ads1115StartSingle = 0x8000
	ads1115MuxSingle   = 0x4000
	ads1115Gain4V      = 0x0200
	ads1115ModeSingle  = 0x0100
	ads1115Rate860     = 0x00E0
	ads1115CompOff     = 0x0003

	ads1115Inputs = 4
)

// ADS1115 reads the four single ended inputs of a TI ADS1115.
type ADS1115 struct {
	Mmr mmr.Dev8
	// Delay between starting a conversion and reading it back.
	Delay time.Duration
}

func NewADS1115(bus i2c.Bus, addr uint16) *ADS1115 {
	return &ADS1115{
		Mmr: mmr.Dev8{
			Conn:  &i2c.Dev{Bus: bus, Addr: addr},
			Order: binary.BigEndian,
		},
		Delay: 2 * time.Millisecond,
	}
}

func configWord(input int) uint16 {
	return ads1115StartSingle | ads1115MuxSingle | uint16(input)<<12 |
		ads1115Gain4V | ads1115ModeSingle | ads1115Rate860 | ads1115CompOff
}

// scaleSingleEnded stretches the non-negative half of the signed conversion
// onto the full sample domain.
func scaleSingleEnded(raw int16) loop.RawSample {
	if raw <= 0 {
		return 0
	}
	return loop.RawSample(int(raw) * loop.SampleMax / 32767)
}

// Read starts a conversion on input and returns it scaled to 0..65535.
func (a *ADS1115) Read(input int) (loop.RawSample, error) {
	if input < 0 || input >= ads1115Inputs {
		return 0, fmt.Errorf("ads1115: no input %d", input)
	}
	if err := a.Mmr.WriteUint16(ads1115Config, configWord(input)); err != nil {
		return 0, fmt.Errorf("ads1115: start conversion: %w", err)
	}
	time.Sleep(a.Delay)
	raw, err := a.Mmr.ReadUint16(ads1115Conversion)
	if err != nil {
		return 0, fmt.Errorf("ads1115: read conversion: %w", err)
	}
	return scaleSingleEnded(int16(raw)), nil
}
