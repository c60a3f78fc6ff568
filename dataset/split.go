package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Ratios are the train/val/test proportions of a stratified split. They
// must be non-negative and sum to 1.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios returns the 80/10/10 split.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.8, Val: 0.1, Test: 0.1}
}

// Validate checks that the ratios describe a complete partition.
func (r Ratios) Validate() error {
	if r.Train < 0 || r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("split ratios must be non-negative, got %v/%v/%v", r.Train, r.Val, r.Test)
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1, got %v", sum)
	}
	return nil
}

// Split partitions a pool into train/val/test, preserving the class ratio
// per split up to floor rounding. The positive and negative sub-pools are
// shuffled with a generator seeded from seed, sliced by ratio, and each
// resulting split is shuffled again with the same generator so classes
// interleave. For fixed (pool, seed, ratios) and input order the output is
// byte-identical across runs; no process-global random state is consulted.
func Split(p Pool, seed uint64, ratios Ratios) (train, val, test Pool, err error) {
	if err := ratios.Validate(); err != nil {
		return nil, nil, nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed))

	var pos, neg Pool
	for _, r := range p {
		if r.Target == 1 {
			pos = append(pos, r)
		} else {
			neg = append(neg, r)
		}
	}
	shuffle(rng, pos)
	shuffle(rng, neg)

	pTrain, pVal, pTest := slice(pos, ratios)
	nTrain, nVal, nTest := slice(neg, ratios)

	train = append(append(Pool{}, pTrain...), nTrain...)
	val = append(append(Pool{}, pVal...), nVal...)
	test = append(append(Pool{}, pTest...), nTest...)
	shuffle(rng, train)
	shuffle(rng, val)
	shuffle(rng, test)

	return train, val, test, nil
}

// slice cuts a shuffled class bucket into its three portions. A bucket of
// size 0 yields three empty slices.
func slice(bucket Pool, ratios Ratios) (train, val, test Pool) {
	n := len(bucket)
	nTrain := int(float64(n) * ratios.Train)
	nVal := int(float64(n) * ratios.Val)
	return bucket[:nTrain], bucket[nTrain : nTrain+nVal], bucket[nTrain+nVal:]
}

func shuffle(rng *rand.Rand, p Pool) {
	rng.Shuffle(len(p), func(i, j int) {
		p[i], p[j] = p[j], p[i]
	})
}
