// Package hardware drives the physical arm: an ADS1115 ADC for the joystick
// axes and potentiometer, a GPIO pin for the joystick button, and either a
// PCA9685 PWM board or a Pololu Maestro for the servos.
package hardware
