// Package signal conditions raw analog samples before they reach a controller.
//
// The conditioning chain for one channel is:
//
//   - [ApplyDeadzone]: snap samples near the rest position to the centre
//   - [Average]: integer moving average over a batch of reads
//   - [Smooth]: exponential smoothing against the previous cycle's value
//
// [Conditioner] bundles the three stages with per-stage toggles, and
// [MapValue] / [Range] convert the conditioned value into the actuator's
// angle domain.
//
// # Usage
//
//	c := signal.Conditioner{Center: 32768, Deadzone: 2000, Samples: 5, Factor: 0.1,
//		UseDeadzone: true, UseFilter: true, UseSmoothing: true}
//	v, err := c.Condition(reads, previous)
package signal
