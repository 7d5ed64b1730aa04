package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/servoloop/internal/control"
	"github.com/san-kum/servoloop/internal/loop"
)

const (
	DefaultCyclePeriodMS   = 50
	DefaultDeadzone        = 2000
	DefaultFilterSamples   = 5
	DefaultSmoothingFactor = 0.1
	DefaultMaxSpeed        = 2.0
	DefaultKp              = 0.5
	DefaultKi              = 0.1
	DefaultKd              = 0.1

	DefaultPCA9685Addr  = 0x40
	DefaultADCAddr      = 0x48
	DefaultPWMFrequency = 50
	DefaultPulseMinUS   = 500.0
	DefaultPulseMaxUS   = 2500.0
	DefaultSerialBaud   = 9600
)

// Stage names accepted in a channel's disable list.
const (
	StageDeadzone  = "deadzone"
	StageFilter    = "filter"
	StageSmoothing = "smoothing"
	StagePID       = "pid"
	StageSlewLimit = "slew_limit"
)

type Config struct {
	CyclePeriodMS int             `yaml:"cycle_period_ms" toml:"cycle_period_ms"`
	SampleMax     int             `yaml:"sample_max" toml:"sample_max"`
	SampleCenter  int             `yaml:"sample_center" toml:"sample_center"`
	Sampler       string          `yaml:"sampler" toml:"sampler"`
	Hardware      HardwareConfig  `yaml:"hardware" toml:"hardware"`
	Channels      []ChannelConfig `yaml:"channels" toml:"channels"`
}

type ChannelConfig struct {
	Name            string   `yaml:"name" toml:"name"`
	ID              int      `yaml:"id" toml:"id"`
	Kind            string   `yaml:"kind" toml:"kind"`
	Input           int      `yaml:"input" toml:"input"`
	AngleMin        float64  `yaml:"angle_min" toml:"angle_min"`
	AngleMax        float64  `yaml:"angle_max" toml:"angle_max"`
	AngleCenter     float64  `yaml:"angle_center" toml:"angle_center"`
	MaxSpeed        float64  `yaml:"max_speed" toml:"max_speed"`
	Kp              float64  `yaml:"kp" toml:"kp"`
	Ki              float64  `yaml:"ki" toml:"ki"`
	Kd              float64  `yaml:"kd" toml:"kd"`
	IntegralLimit   float64  `yaml:"integral_limit,omitempty" toml:"integral_limit,omitempty"`
	Deadzone        int      `yaml:"deadzone" toml:"deadzone"`
	FilterSamples   int      `yaml:"filter_samples" toml:"filter_samples"`
	SmoothingFactor float64  `yaml:"smoothing_factor" toml:"smoothing_factor"`
	Invert          bool     `yaml:"invert,omitempty" toml:"invert,omitempty"`
	Disable         []string `yaml:"disable,omitempty" toml:"disable,omitempty"`
}

type HardwareConfig struct {
	I2CBus       string  `yaml:"i2c_bus" toml:"i2c_bus"`
	Actuator     string  `yaml:"actuator" toml:"actuator"`
	PCA9685Addr  int     `yaml:"pca9685_addr" toml:"pca9685_addr"`
	PWMFrequency int     `yaml:"pwm_frequency" toml:"pwm_frequency"`
	PulseMinUS   float64 `yaml:"pulse_min_us" toml:"pulse_min_us"`
	PulseMaxUS   float64 `yaml:"pulse_max_us" toml:"pulse_max_us"`
	SerialPort   string  `yaml:"serial_port" toml:"serial_port"`
	SerialBaud   int     `yaml:"serial_baud" toml:"serial_baud"`
	ADCAddr      int     `yaml:"adc_addr" toml:"adc_addr"`
	// ADCChannels maps logical input ids (by index) to ADS1115 inputs.
	ADCChannels []int  `yaml:"adc_channels" toml:"adc_channels"`
	ButtonInput int    `yaml:"button_input" toml:"button_input"`
	ButtonPin   string `yaml:"button_pin" toml:"button_pin"`
	GPIOBackend string `yaml:"gpio_backend" toml:"gpio_backend"`
}

func DefaultHardware() HardwareConfig {
	return HardwareConfig{
		Actuator:     "pca9685",
		PCA9685Addr:  DefaultPCA9685Addr,
		PWMFrequency: DefaultPWMFrequency,
		PulseMinUS:   DefaultPulseMinUS,
		PulseMaxUS:   DefaultPulseMaxUS,
		SerialPort:   "/dev/ttyACM0",
		SerialBaud:   DefaultSerialBaud,
		ADCAddr:      DefaultADCAddr,
		ADCChannels:  []int{0, 1, 2},
		ButtonInput:  3,
		ButtonPin:    "GPIO16",
		GPIOBackend:  "periph",
	}
}

// DefaultConfig is the four-servo arm: base, arm and palm follow the
// joystick axes and the potentiometer, the claw follows the joystick button.
func DefaultConfig() *Config {
	return &Config{
		CyclePeriodMS: DefaultCyclePeriodMS,
		SampleMax:     loop.SampleMax,
		SampleCenter:  loop.SampleCenter,
		Sampler:       "repeat",
		Hardware:      DefaultHardware(),
		Channels: []ChannelConfig{
			analogChannel("Base", 12, "axis", 0, 20, 160),
			analogChannel("Arm", 13, "axis", 1, 0, 180),
			analogChannel("Palm", 14, "pot", 2, 0, 180),
			{
				Name: "Claw", ID: 15, Kind: "button", Input: 3,
				AngleMin: 0, AngleMax: 180, AngleCenter: 90, MaxSpeed: DefaultMaxSpeed,
				Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd,
				Invert: true,
			},
		},
	}
}

func analogChannel(name string, id int, kind string, input int, lo, hi float64) ChannelConfig {
	ch := ChannelConfig{
		Name: name, ID: id, Kind: kind, Input: input,
		AngleMin: lo, AngleMax: hi, AngleCenter: 90, MaxSpeed: DefaultMaxSpeed,
		Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd,
		Deadzone:        DefaultDeadzone,
		FilterSamples:   DefaultFilterSamples,
		SmoothingFactor: DefaultSmoothingFactor,
	}
	if kind == "pot" {
		// the potentiometer is smoothed but read once per cycle
		ch.Deadzone = 0
		ch.Disable = []string{StageFilter}
	}
	return ch
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	defaults := cfg.Channels
	// channels listed in the file replace the defaults wholesale
	cfg.Channels = nil

	if isTOML(path) {
		_, err = toml.Decode(string(data), cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = defaults
	}
	return cfg, nil
}

// Marshal renders cfg as "yaml" or "toml".
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yaml.Marshal(cfg)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown config format: %s", format)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Hardware.ADCChannels = append([]int(nil), c.Hardware.ADCChannels...)
	out.Channels = make([]ChannelConfig, len(c.Channels))
	for i, ch := range c.Channels {
		ch.Disable = append([]string(nil), ch.Disable...)
		out.Channels[i] = ch
	}
	return &out
}

// SetGains sets the PID gains of every channel.
func (c *Config) SetGains(kp, ki, kd float64) {
	for i := range c.Channels {
		c.Channels[i].Kp = kp
		c.Channels[i].Ki = ki
		c.Channels[i].Kd = kd
	}
}

func (c *Config) CyclePeriod() time.Duration {
	return time.Duration(c.CyclePeriodMS) * time.Millisecond
}

// Channel returns the channel named name, case-insensitively.
func (c *Config) Channel(name string) (*ChannelConfig, bool) {
	for i := range c.Channels {
		if strings.EqualFold(c.Channels[i].Name, name) {
			return &c.Channels[i], true
		}
	}
	return nil, false
}

// ToLoop converts the file representation into loop configuration.
func (c *Config) ToLoop() (loop.Config, error) {
	lc := loop.Config{
		CyclePeriod:  c.CyclePeriod(),
		SampleMax:    c.SampleMax,
		SampleCenter: c.SampleCenter,
		Channels:     make([]loop.Channel, 0, len(c.Channels)),
	}

	for _, ch := range c.Channels {
		kind, err := loop.ParseKind(ch.Kind)
		if err != nil {
			return lc, fmt.Errorf("%w: channel %s: %w", loop.ErrInvalidConfiguration, ch.Name, err)
		}
		stages, err := parseStages(ch.Disable)
		if err != nil {
			return lc, fmt.Errorf("%w: channel %s: %w", loop.ErrInvalidConfiguration, ch.Name, err)
		}
		lc.Channels = append(lc.Channels, loop.Channel{
			ID:          ch.ID,
			Name:        ch.Name,
			Kind:        kind,
			Input:       ch.Input,
			AngleMin:    ch.AngleMin,
			AngleMax:    ch.AngleMax,
			AngleCenter: ch.AngleCenter,
			MaxSpeed:    ch.MaxSpeed,
			Gains: control.Gains{
				Kp:            ch.Kp,
				Ki:            ch.Ki,
				Kd:            ch.Kd,
				IntegralLimit: ch.IntegralLimit,
			},
			Deadzone:        ch.Deadzone,
			FilterSamples:   ch.FilterSamples,
			SmoothingFactor: ch.SmoothingFactor,
			Invert:          ch.Invert,
			Stages:          stages,
		})
	}
	return lc, nil
}

func parseStages(disable []string) (loop.Stages, error) {
	s := loop.AllStages()
	for _, name := range disable {
		switch strings.ToLower(name) {
		case StageDeadzone:
			s.Deadzone = false
		case StageFilter:
			s.Filter = false
		case StageSmoothing:
			s.Smoothing = false
		case StagePID:
			s.PID = false
		case StageSlewLimit, "slew":
			s.SlewLimit = false
		default:
			return s, fmt.Errorf("unknown stage: %s", name)
		}
	}
	return s, nil
}

// DisableStage adds stage to every channel's disable list.
func (c *Config) DisableStage(stage string) {
	for i := range c.Channels {
		if !containsFold(c.Channels[i].Disable, stage) {
			c.Channels[i].Disable = append(c.Channels[i].Disable, stage)
		}
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
