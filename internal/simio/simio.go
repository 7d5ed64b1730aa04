// Package simio provides simulated inputs and actuators so the control loop
// can run without hardware.
package simio

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/servoloop/internal/loop"
)

var ErrSimulatedFault = errors.New("simio: simulated fault")

// Constant returns the same value for each input on every read.
type Constant map[int]loop.RawSample

func (c Constant) ReadChannel(id int) (loop.RawSample, error) {
	v, ok := c[id]
	if !ok {
		return 0, fmt.Errorf("no simulated input %d", id)
	}
	return v, nil
}

// Script replays a fixed sequence per input, holding the last value once the
// sequence is exhausted.
type Script struct {
	seq map[int][]loop.RawSample
	pos map[int]int
}

func NewScript(seq map[int][]loop.RawSample) *Script {
	return &Script{seq: seq, pos: make(map[int]int)}
}

func (s *Script) ReadChannel(id int) (loop.RawSample, error) {
	seq := s.seq[id]
	if len(seq) == 0 {
		return 0, fmt.Errorf("no scripted input %d", id)
	}
	if s.pos == nil {
		s.pos = make(map[int]int)
	}
	i := s.pos[id]
	if i >= len(seq) {
		return seq[len(seq)-1], nil
	}
	s.pos[id] = i + 1
	return seq[i], nil
}

// Sweep moves every listed input back and forth across the full sample
// domain in steps of Step per read.
type Sweep struct {
	Inputs []int
	Step   int
	value  map[int]int
	dir    map[int]int
}

func NewSweep(step int, inputs ...int) *Sweep {
	return &Sweep{Inputs: inputs, Step: step, value: map[int]int{}, dir: map[int]int{}}
}

func (s *Sweep) ReadChannel(id int) (loop.RawSample, error) {
	if !contains(s.Inputs, id) {
		return 0, fmt.Errorf("no swept input %d", id)
	}
	if s.value == nil {
		s.value, s.dir = map[int]int{}, map[int]int{}
	}
	v := s.value[id]
	d := s.dir[id]
	if d == 0 {
		d = 1
	}
	next := v + d*s.Step
	if next > loop.SampleMax {
		next, d = loop.SampleMax, -1
	} else if next < 0 {
		next, d = 0, 1
	}
	s.value[id] = next
	s.dir[id] = d
	return loop.RawSample(v), nil
}

// Noise adds uniform jitter of ±Amplitude to a base value per input. A zero
// Noise is seeded with 1.
type Noise struct {
	Base      map[int]loop.RawSample
	Amplitude int
	rng       *rand.Rand
}

func NewNoise(seed int64, amplitude int, base map[int]loop.RawSample) *Noise {
	return &Noise{Base: base, Amplitude: amplitude, rng: rand.New(rand.NewSource(seed))}
}

func (n *Noise) ReadChannel(id int) (loop.RawSample, error) {
	b, ok := n.Base[id]
	if !ok {
		return 0, fmt.Errorf("no noisy input %d", id)
	}
	v := int(b)
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(1))
	}
	if n.Amplitude > 0 {
		v += n.rng.Intn(2*n.Amplitude+1) - n.Amplitude
	}
	if v < 0 {
		v = 0
	}
	if v > loop.SampleMax {
		v = loop.SampleMax
	}
	return loop.RawSample(v), nil
}

// Faulty wraps an input and fails every Every-th read of the listed inputs.
type Faulty struct {
	Input  loop.Input
	Every  int
	Inputs []int
	count  int
}

func (f *Faulty) ReadChannel(id int) (loop.RawSample, error) {
	if f.Every > 0 && (len(f.Inputs) == 0 || contains(f.Inputs, id)) {
		f.count++
		if f.count%f.Every == 0 {
			return 0, fmt.Errorf("input %d: %w", id, ErrSimulatedFault)
		}
	}
	return f.Input.ReadChannel(id)
}

// Mux routes each input id to its own source.
type Mux map[int]loop.Input

func (m Mux) ReadChannel(id int) (loop.RawSample, error) {
	in, ok := m[id]
	if !ok {
		return 0, fmt.Errorf("no input routed for %d", id)
	}
	return in.ReadChannel(id)
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Scenarios lists the names accepted by NewScenario.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var scenarios = map[string]func(seed int64) loop.Input{
	// joystick at rest, pot centred, button released
	"center": func(int64) loop.Input {
		return Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter, 3: loop.ButtonReleased}
	},
	// joystick pushed to full deflection, claw closed
	"full": func(int64) loop.Input {
		return Constant{0: loop.SampleMax, 1: loop.SampleMax, 2: loop.SampleMax, 3: loop.ButtonPressed}
	},
	"sweep": func(int64) loop.Input {
		return Mux{
			0: NewSweep(512, 0),
			1: NewSweep(256, 1),
			2: NewSweep(128, 2),
			3: Constant{3: loop.ButtonReleased},
		}
	},
	"noise": func(seed int64) loop.Input {
		return NewNoise(seed, 1500, map[int]loop.RawSample{
			0: loop.SampleCenter, 1: 50000, 2: 20000, 3: loop.ButtonReleased,
		})
	},
	"button": func(int64) loop.Input {
		press := make([]loop.RawSample, 0, 200)
		for i := 0; i < 200; i++ {
			if (i/50)%2 == 0 {
				press = append(press, loop.ButtonPressed)
			} else {
				press = append(press, loop.ButtonReleased)
			}
		}
		return Mux{
			0: Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter},
			1: Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter},
			2: Constant{0: loop.SampleCenter, 1: loop.SampleCenter, 2: loop.SampleCenter},
			3: NewScript(map[int][]loop.RawSample{3: press}),
		}
	},
	"faulty": func(seed int64) loop.Input {
		return &Faulty{Input: NewNoise(seed, 800, map[int]loop.RawSample{
			0: 60000, 1: 10000, 2: loop.SampleCenter, 3: loop.ButtonReleased,
		}), Every: 7}
	},
}

// NewScenario builds a named simulated input over the four standard logical
// inputs (0 X axis, 1 Y axis, 2 potentiometer, 3 button).
func NewScenario(name string, seed int64) (loop.Input, error) {
	fn, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, Scenarios())
	}
	return fn(seed), nil
}
