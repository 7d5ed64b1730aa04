// Package optim searches controller parameters by running the loop against
// simulated input.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Evaluate scores one parameter set; lower is better.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Workers bounds concurrent evaluations. Zero means GOMAXPROCS.
	Workers int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("param %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

type Result struct {
	Params    map[string]float64
	Score     float64
	Evaluated int
	Failed    int
}

// Candidates returns the full grid in a fixed order, last parameter fastest.
func (g *GridSearch) Candidates() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.collect(depth+1, next, out)
	}
}

// Search evaluates every candidate and returns the lowest score. Ties go to
// the candidate that comes first in the grid.
func (g *GridSearch) Search(ctx context.Context, eval Evaluate) (Result, error) {
	candidates := g.Candidates()
	scores := make([]float64, len(candidates))
	errs := make([]error, len(candidates))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					continue
				}
				scores[idx], errs[idx] = eval(ctx, candidates[idx])
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Score: math.Inf(1), Evaluated: len(candidates)}
	for i, score := range scores {
		if errs[i] != nil || math.IsNaN(score) {
			res.Failed++
			continue
		}
		if score < res.Score {
			res.Score = score
			res.Params = candidates[i]
		}
	}
	if res.Params == nil {
		return res, fmt.Errorf("all %d candidates failed", len(candidates))
	}
	return res, nil
}

// ParseRange accepts "a,b,c" or "start:stop:step".
func ParseRange(s string) ([]float64, error) {
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("range %q: want start:stop:step", s)
		}
		var v [3]float64
		for i, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", s, err)
			}
			v[i] = f
		}
		start, stop, step := v[0], v[1], v[2]
		if step <= 0 || stop < start {
			return nil, fmt.Errorf("range %q: step must be positive and stop >= start", s)
		}
		n := int(math.Floor((stop-start)/step+1e-9)) + 1
		out := make([]float64, n)
		for i := range out {
			out[i] = start + float64(i)*step
		}
		return out, nil
	}

	var out []float64
	for _, p := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", s, err)
		}
		out = append(out, f)
	}
	return out, nil
}
