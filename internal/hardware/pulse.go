package hardware

import (
	"math"

	"periph.io/x/conn/v3/gpio"
)

// ServoRange is the angular travel the pulse range spans.
const ServoRange = 180.0

// pcaResolution is the number of PWM steps per period on the PCA9685.
const pcaResolution = 4096

// PulseWidth converts degrees into a pulse width in microseconds, linear
// from minUS at 0 to maxUS at ServoRange. Angles outside the travel are
// clamped.
func PulseWidth(degrees, minUS, maxUS float64) float64 {
	degrees = math.Max(0, math.Min(ServoRange, degrees))
	return minUS + degrees/ServoRange*(maxUS-minUS)
}

// PulseTicks converts a pulse width into PCA9685 off ticks at freqHz.
func PulseTicks(us float64, freqHz int) gpio.Duty {
	ticks := math.Round(us * pcaResolution * float64(freqHz) / 1e6)
	if ticks > pcaResolution-1 {
		ticks = pcaResolution - 1
	}
	if ticks < 0 {
		ticks = 0
	}
	return gpio.Duty(ticks)
}

// QuarterMicros converts a pulse width into the Maestro's target unit.
func QuarterMicros(us float64) uint16 {
	return uint16(math.Round(us * 4))
}
