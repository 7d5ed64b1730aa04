package loop

import (
	"errors"
	"fmt"
)

// Domain errors for control loop operations.
var (
	// ErrInvalidConfiguration indicates a configuration that must not enter the cycle.
	ErrInvalidConfiguration = errors.New("loop: invalid configuration")

	// ErrDivisionByZero indicates a degenerate sample range for mapping.
	ErrDivisionByZero = errors.New("loop: degenerate mapping range")

	// ErrReadFailure indicates the input collaborator could not produce a sample.
	ErrReadFailure = errors.New("loop: input read failed")

	// ErrActuatorCommand indicates the actuator collaborator rejected a command.
	ErrActuatorCommand = errors.New("loop: actuator command failed")
)

// ChannelError wraps an error with the channel and cycle it occurred in.
type ChannelError struct {
	Channel string
	Cycle   int
	Kind    error
	Wrapped error
}

func (e *ChannelError) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("cycle %d: %s: %v", e.Cycle, e.Channel, e.Kind)
	}
	return fmt.Sprintf("cycle %d: %s: %v: %v", e.Cycle, e.Channel, e.Kind, e.Wrapped)
}

// Unwrap exposes both the domain error and its cause to errors.Is.
func (e *ChannelError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Wrapped}
}

func configError(channel string, err error) error {
	if channel == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return fmt.Errorf("%w: channel %s: %w", ErrInvalidConfiguration, channel, err)
}
