// Package report renders control loop output for people: the per cycle
// servo angle lines and JSON exports of recorded runs.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/san-kum/servoloop/internal/loop"
)

var separator = strings.Repeat("-", 30)

// Printer writes one "<Name> Servo Angle: <deg>" line per channel and a
// separator after every cycle. It is a loop.Observer.
type Printer struct {
	w     io.Writer
	name  func(a ...interface{}) string
	every int
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, name: fmt.Sprint, every: 1}
}

// WithColor highlights channel names.
func (p *Printer) WithColor() *Printer {
	p.name = color.New(color.FgGreen, color.Bold).SprintFunc()
	return p
}

// Every prints only one cycle in n.
func (p *Printer) Every(n int) *Printer {
	if n > 0 {
		p.every = n
	}
	return p
}

func (p *Printer) OnCycle(r loop.CycleResult) {
	if r.Cycle%p.every != 0 {
		return
	}
	for _, c := range r.Channels {
		fmt.Fprintf(p.w, "%s Servo Angle: %.2f\n", p.name(c.Name), c.Angle)
	}
	fmt.Fprintln(p.w, separator)
}
