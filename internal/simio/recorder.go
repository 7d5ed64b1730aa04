package simio

import "fmt"

type Command struct {
	ID      int
	Degrees float64
}

// Recorder is an actuator that keeps every command it receives. Commands to
// ids in Reject fail after being recorded.
type Recorder struct {
	Commands []Command
	Reject   map[int]bool
	last     map[int]float64
}

func NewRecorder() *Recorder {
	return &Recorder{Reject: map[int]bool{}, last: map[int]float64{}}
}

func (r *Recorder) SetActuatorPosition(id int, degrees float64) error {
	r.Commands = append(r.Commands, Command{ID: id, Degrees: degrees})
	if r.Reject[id] {
		return fmt.Errorf("actuator %d: %w", id, ErrSimulatedFault)
	}
	if r.last == nil {
		r.last = map[int]float64{}
	}
	r.last[id] = degrees
	return nil
}

// Position returns the last accepted angle for id.
func (r *Recorder) Position(id int) (float64, bool) {
	v, ok := r.last[id]
	return v, ok
}

// History returns the accepted and rejected angles sent to id, in order.
func (r *Recorder) History(id int) []float64 {
	out := make([]float64, 0)
	for _, c := range r.Commands {
		if c.ID == id {
			out = append(out, c.Degrees)
		}
	}
	return out
}
