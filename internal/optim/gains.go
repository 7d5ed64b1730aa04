package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/servoloop/internal/config"
	"github.com/san-kum/servoloop/internal/loop"
	"github.com/san-kum/servoloop/internal/metrics"
	"github.com/san-kum/servoloop/internal/simio"
)

var GainParams = []string{"kp", "ki", "kd"}

// GainEvaluator scores a gain set by running cfg with those gains on every
// channel for cycles cycles of the named simulated input and reading metric.
func GainEvaluator(cfg *config.Config, scenario string, seed int64, cycles int, metric string) Evaluate {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		c := cfg.Clone()
		c.SetGains(params["kp"], params["ki"], params["kd"])

		lc, err := c.ToLoop()
		if err != nil {
			return 0, err
		}
		in, err := simio.NewScenario(scenario, seed)
		if err != nil {
			return 0, err
		}
		sampler, err := loop.ParseSampler(c.Sampler)
		if err != nil {
			return 0, err
		}

		set := metrics.Default()
		l, err := loop.New(lc, &loop.HardwareContext{Input: in, Actuator: simio.NewRecorder(), Sampler: sampler}, loop.WithObserver(set))
		if err != nil {
			return 0, err
		}
		if _, err := l.RunCycles(ctx, cycles); err != nil {
			return 0, err
		}

		v, ok := set.Values()[metric]
		if !ok {
			return 0, fmt.Errorf("unknown metric: %s", metric)
		}
		return v, nil
	}
}
