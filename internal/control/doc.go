// Package control provides the closed-loop stages between a target angle and
// the command sent to an actuator:
//
//   - [PID]: Proportional-Integral-Derivative tracker, one per channel
//   - [SlewLimiter]: bounds the per-cycle change, then the absolute angle
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 0.5, Ki: 0.1, Kd: 0.1})
//	slew := control.NewSlewLimiter(2, 0, 180)
//	next := slew.Apply(last, pid.Update(target, last))
//
// PID implements GetParams/SetParam for startup tuning from configuration.
package control
