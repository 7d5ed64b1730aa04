package signal

import "errors"

var (
	// ErrInvalidConfiguration indicates conditioning parameters that can never work.
	ErrInvalidConfiguration = errors.New("signal: invalid configuration")

	// ErrDivisionByZero indicates a degenerate source range in a mapping.
	ErrDivisionByZero = errors.New("signal: division by zero (empty source range)")
)
