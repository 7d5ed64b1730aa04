package config

import "sort"

// Presets reproduce the variants of the arm controller as parameterisations
// of the same loop.
var Presets = map[string]func() *Config{
	// full pipeline: deadzone, filter, smoothing, PID and slew limit at 50 ms
	"arm": DefaultConfig,
	// raw joystick to servo: deadzone and slew limit only, 100 ms cycle
	"direct": func() *Config {
		cfg := DefaultConfig()
		cfg.CyclePeriodMS = 100
		cfg.DisableStage(StageFilter)
		cfg.DisableStage(StageSmoothing)
		cfg.DisableStage(StagePID)
		return cfg
	},
	// filtered and smoothed input tracked without PID
	"filtered": func() *Config {
		cfg := DefaultConfig()
		cfg.DisableStage(StagePID)
		return cfg
	},
	// full pipeline with the integral clamped
	"antiwindup": func() *Config {
		cfg := DefaultConfig()
		for i := range cfg.Channels {
			cfg.Channels[i].IntegralLimit = 200
		}
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
