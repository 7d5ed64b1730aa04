// Package tui renders a running control loop as a live terminal dashboard.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/servoloop/internal/loop"
)

const (
	gaugeWidth   = 36
	historyLen   = 40
	angleRange   = 180.0
	sparkSymbols = "▁▂▃▄▅▆▇█"
)

type cycleMsg loop.CycleResult

type doneMsg struct{ err error }

type Model struct {
	title    string
	channels []loop.Channel
	last     loop.CycleResult
	history  map[int][]float64
	faults   map[int]int
	cycles   int
	done     bool
	err      error
	width    int
}

func NewMonitor(name string, channels []loop.Channel) Model {
	return Model{
		title:    name,
		channels: channels,
		history:  make(map[int][]float64, len(channels)),
		faults:   make(map[int]int, len(channels)),
		width:    80,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case cycleMsg:
		r := loop.CycleResult(msg)
		m.last = r
		m.cycles = r.Cycle + 1
		for _, c := range r.Channels {
			h := append(m.history[c.ID], c.Angle)
			if len(h) > historyLen {
				h = h[len(h)-historyLen:]
			}
			m.history[c.ID] = h
			if c.ReadErr != nil || c.CommandErr != nil {
				m.faults[c.ID]++
			}
		}
	case doneMsg:
		m.done = true
		m.err = msg.err
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	status := statusRunning.Render("● running")
	if m.done {
		status = statusStopped.Render("■ stopped")
	}
	b.WriteString(fmt.Sprintf("%s  %s  %s\n\n", title.Render(m.title), status, subtle.Render(fmt.Sprintf("cycle %d", m.cycles))))

	results := make(map[int]loop.ChannelResult, len(m.last.Channels))
	for _, c := range m.last.Channels {
		results[c.ID] = c
	}

	for _, ch := range m.channels {
		r := results[ch.ID]
		line := fmt.Sprintf("%s %s %s  %s",
			label.Render(ch.Name),
			gauge(r.Angle, r.Target),
			value.Render(fmt.Sprintf("%6.2f°", r.Angle)),
			sparkline(m.history[ch.ID]))
		if n := m.faults[ch.ID]; n > 0 {
			line += "  " + statusFault.Render(fmt.Sprintf("%d faults", n))
		}
		b.WriteString(line + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + statusFault.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + keyHint.Render("q quit"))
	return panel.Render(b.String())
}

// gauge draws the angle as a filled bar with the target marked by '|'.
func gauge(angle, target float64) string {
	pos := cell(angle)
	mark := cell(target)
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < gaugeWidth; i++ {
		switch {
		case i == mark:
			b.WriteByte('|')
		case i <= pos:
			b.WriteString("█")
		default:
			b.WriteString("·")
		}
	}
	b.WriteByte(']')
	return b.String()
}

func cell(angle float64) int {
	c := int(angle / angleRange * float64(gaugeWidth-1))
	if c < 0 {
		return 0
	}
	if c >= gaugeWidth {
		return gaugeWidth - 1
	}
	return c
}

func sparkline(values []float64) string {
	runes := []rune(sparkSymbols)
	var b strings.Builder
	for _, v := range values {
		idx := int(v / angleRange * float64(len(runes)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(runes) {
			idx = len(runes) - 1
		}
		s := string(runes[idx])
		switch {
		case idx >= 5:
			b.WriteString(sparkHigh.Render(s))
		case idx >= 2:
			b.WriteString(sparkMid.Render(s))
		default:
			b.WriteString(sparkLow.Render(s))
		}
	}
	return b.String()
}

// Feed forwards loop cycles to a running program. It is a loop.Observer.
type Feed struct {
	p *tea.Program
}

func NewFeed(p *tea.Program) *Feed {
	return &Feed{p: p}
}

func (f *Feed) OnCycle(r loop.CycleResult) {
	f.p.Send(cycleMsg(r.Clone()))
}

// Done tells the monitor the loop has stopped.
func (f *Feed) Done(err error) {
	f.p.Send(doneMsg{err: err})
}
