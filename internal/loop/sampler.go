package loop

import "fmt"

// RepeatSampler reads the input n times, one physical read per sample.
type RepeatSampler struct{}

func (RepeatSampler) SampleBatch(in Input, id, n int) ([]RawSample, error) {
	out := make([]RawSample, n)
	for i := range out {
		v, err := in.ReadChannel(id)
		if err != nil {
			return nil, fmt.Errorf("read %d/%d of input %d: %w", i+1, n, id, err)
		}
		out[i] = v
	}
	return out, nil
}

// ReplicateSampler reads once and repeats the sample n times. Use it when the
// input is already filtered upstream.
type ReplicateSampler struct{}

func (ReplicateSampler) SampleBatch(in Input, id, n int) ([]RawSample, error) {
	v, err := in.ReadChannel(id)
	if err != nil {
		return nil, fmt.Errorf("read input %d: %w", id, err)
	}
	out := make([]RawSample, n)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func ParseSampler(name string) (Sampler, error) {
	switch name {
	case "", "repeat":
		return RepeatSampler{}, nil
	case "replicate":
		return ReplicateSampler{}, nil
	}
	return nil, fmt.Errorf("unknown sampler: %s", name)
}
