package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/servoloop/internal/config"
)

func TestCandidates(t *testing.T) {
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}
	c := g.Candidates()
	if len(c) != 6 {
		t.Fatalf("expected 6 candidates, got %d", len(c))
	}
	if c[0]["a"] != 1 || c[0]["b"] != 10 || c[1]["b"] != 20 || c[5]["a"] != 2 {
		t.Errorf("unexpected order %v", c)
	}
}

func TestNewGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"a"}, nil); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestSearchFindsMinimum(t *testing.T) {
	g, _ := NewGridSearch([]string{"x", "y"}, [][]float64{{-2, -1, 0, 1, 2}, {0, 1, 2}})
	g.Workers = 3

	res, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		if p["y"] == 2 {
			return 0, errors.New("unstable")
		}
		return (p["x"]-1)*(p["x"]-1) + p["y"], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Params["x"] != 1 || res.Params["y"] != 0 || res.Score != 0 {
		t.Errorf("unexpected best %v (%f)", res.Params, res.Score)
	}
	if res.Evaluated != 15 || res.Failed != 5 {
		t.Errorf("expected 15 evaluated and 5 failed, got %d and %d", res.Evaluated, res.Failed)
	}
}

func TestSearchAllFail(t *testing.T) {
	g, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	_, err := g.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return math.NaN(), nil
	})
	if err == nil {
		t.Error("expected error when every candidate fails")
	}
}

func TestSearchCancelled(t *testing.T) {
	g, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 0, nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseRange(t *testing.T) {
	got, err := ParseRange("0:1:0.25")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[4] != 1 {
		t.Errorf("unexpected range %v", got)
	}

	got, err = ParseRange("0.1, 0.5,2")
	if err != nil || len(got) != 3 || got[1] != 0.5 {
		t.Errorf("unexpected list %v (%v)", got, err)
	}

	for _, bad := range []string{"1:0:1", "0:1:0", "a,b", "0:1"} {
		if _, err := ParseRange(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestGainEvaluator(t *testing.T) {
	eval := GainEvaluator(config.DefaultConfig(), "full", 1, 150, "tracking_error")

	slow, err := eval(context.Background(), map[string]float64{"kp": 0.05})
	if err != nil {
		t.Fatal(err)
	}
	fast, err := eval(context.Background(), map[string]float64{"kp": 1})
	if err != nil {
		t.Fatal(err)
	}
	if fast >= slow {
		t.Errorf("higher kp should track the full scale input better: kp=1 %f, kp=0.05 %f", fast, slow)
	}

	bad := GainEvaluator(config.DefaultConfig(), "full", 1, 10, "bogus")
	if _, err := bad(context.Background(), map[string]float64{"kp": 1}); err == nil {
		t.Error("expected error for unknown metric")
	}
}
