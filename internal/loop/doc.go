// Package loop runs the fixed-period control cycle that turns analog inputs
// into actuator commands.
//
// The package defines the collaborators and data types of the cycle:
//
//   - [Input]: reads one raw sample from a logical input channel
//   - [Sampler]: batches reads for the moving-average filter
//   - [Actuator]: receives the bounded angle for one output channel
//   - [HardwareContext]: the three collaborators handed to [New]
//   - [Channel] / [ChannelState]: static configuration and runtime state
//   - [CycleResult]: the ordered per-channel outcome of one cycle
//
// Each cycle processes every channel in configuration order:
// read -> condition -> map -> PID -> slew-limit -> emit, then notifies the
// registered [Observer]s.
//
// # Example
//
//	hw := &loop.HardwareContext{Input: in, Actuator: out}
//	l, err := loop.New(cfg, hw, loop.WithLogger(log))
//	if err != nil {
//		// invalid configuration, never cycled
//	}
//	err = l.Run(ctx)
//
// # Thread Safety
//
// A Loop is driven by a single goroutine. Channel state is never shared, so
// no locking is performed; do not call Step concurrently.
package loop
