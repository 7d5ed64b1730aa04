// Package logging writes leveled log lines to a file and the console at the
// same time.
package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) tag() string {
	switch l {
	case LevelDebug:
		return "DEBU"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	default:
		return "ERRO"
	}
}

func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

var levelColors = map[Level]*color.Color{
	LevelDebug:   color.New(color.FgHiBlack),
	LevelInfo:    color.New(color.FgCyan),
	LevelWarning: color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed, color.Bold),
}

// MultiLogger writes every line at or above its level to both sinks. The
// file sink is written plain, the console sink is coloured by level.
type MultiLogger struct {
	mu      sync.Mutex
	file    io.Writer
	console io.Writer
	level   Level
	now     func() time.Time
}

func New(file, console io.Writer, level Level) *MultiLogger {
	return &MultiLogger{file: file, console: console, level: level, now: time.Now}
}

// Discard drops all output.
func Discard() *MultiLogger {
	return New(nil, nil, LevelError+1)
}

func (m *MultiLogger) SetLevel(level Level) {
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
}

func (m *MultiLogger) log(level Level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if level < m.level {
		return
	}

	stamp := m.now().Format("15:04:05.000")
	if m.file != nil {
		fmt.Fprintf(m.file, "%s %4s %s\n", stamp, level.tag(), msg)
	}
	if m.console != nil {
		fmt.Fprintf(m.console, "%s %s %s\n", stamp, levelColors[level].Sprint(level.tag()), msg)
	}
}

func (m *MultiLogger) Debug(msg string)   { m.log(LevelDebug, msg) }
func (m *MultiLogger) Info(msg string)    { m.log(LevelInfo, msg) }
func (m *MultiLogger) Warning(msg string) { m.log(LevelWarning, msg) }
func (m *MultiLogger) Error(msg string)   { m.log(LevelError, msg) }

func (m *MultiLogger) Debugf(msg string, args ...interface{}) {
	m.log(LevelDebug, fmt.Sprintf(msg, args...))
}

func (m *MultiLogger) Infof(msg string, args ...interface{}) {
	m.log(LevelInfo, fmt.Sprintf(msg, args...))
}

func (m *MultiLogger) Warningf(msg string, args ...interface{}) {
	m.log(LevelWarning, fmt.Sprintf(msg, args...))
}

func (m *MultiLogger) Errorf(msg string, args ...interface{}) {
	m.log(LevelError, fmt.Sprintf(msg, args...))
}
