package report

import (
	"fmt"
	"io"

	"github.com/san-kum/servoloop/internal/loop"
)

// Raw thresholds for calling an axis deflected.
const (
	AxisLow  = 500
	AxisHigh = 50000
)

type JoystickStatus struct {
	X       string
	Y       string
	Pressed bool
}

// ClassifyJoystick names the joystick direction from raw X, Y and button
// reads. The button is active-low.
func ClassifyJoystick(x, y, button loop.RawSample) JoystickStatus {
	s := JoystickStatus{X: "middle", Y: "middle", Pressed: button == loop.ButtonPressed}
	switch {
	case x <= AxisLow:
		s.X = "left"
	case x >= AxisHigh:
		s.X = "right"
	}
	switch {
	case y >= AxisHigh:
		s.Y = "up"
	case y <= AxisLow:
		s.Y = "down"
	}
	return s
}

func (s JoystickStatus) String() string {
	button := "not pressed"
	if s.Pressed {
		button = "pressed"
	}
	return fmt.Sprintf("X: %s, Y: %s -- button %s", s.X, s.Y, button)
}

// ReadJoystick reads the X, Y and button inputs once and writes the
// classified status to w.
func ReadJoystick(w io.Writer, in loop.Input, xInput, yInput, buttonInput int) (JoystickStatus, error) {
	var raw [3]loop.RawSample
	for i, id := range []int{xInput, yInput, buttonInput} {
		v, err := in.ReadChannel(id)
		if err != nil {
			return JoystickStatus{}, fmt.Errorf("read input %d: %w", id, err)
		}
		raw[i] = v
	}
	s := ClassifyJoystick(raw[0], raw[1], raw[2])
	_, err := fmt.Fprintln(w, s)
	return s, err
}
