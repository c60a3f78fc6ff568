// Package augment combines a real corpus with a synthetic pool under an
// explicit leakage policy.
package augment

import (
	"fmt"

	"github.com/c360studio/vulncorpus/dataset"
)

// Scope controls which splits synthetic rows may enter.
type Scope string

const (
	// ScopeTrainOnly concatenates synthetic rows into train only. This
	// is the default: evaluation splits stay free of synthetic data.
	ScopeTrainOnly Scope = "train_only"

	// ScopeAll concatenates synthetic rows into every available split.
	// Opt-in only; synthetic distribution leaks into evaluation.
	ScopeAll Scope = "all"
)

// ParseScope validates a scope selector.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeTrainOnly, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid augment scope %q (want %q or %q)", s, ScopeTrainOnly, ScopeAll)
}

// Merge combines real train/val/test pools with a synthetic pool under the
// given scope. Val and test may be nil when those splits are unavailable;
// nil in means nil out. Every output pool is re-filtered for empty code
// and re-normalized, so pools from different extraction paths leave with a
// uniform schema. The caller materializes outputs with ToTable(withIndex),
// which assigns the dense 0-based index after all filtering.
func Merge(train, val, test, synthPool dataset.Pool, scope Scope) (trainOut, valOut, testOut dataset.Pool) {
	trainOut = finalize(concat(train, synthPool))

	valOut = val
	testOut = test
	if scope == ScopeAll {
		if val != nil {
			valOut = concat(val, synthPool)
		}
		if test != nil {
			testOut = concat(test, synthPool)
		}
	}
	if valOut != nil {
		valOut = finalize(valOut)
	}
	if testOut != nil {
		testOut = finalize(testOut)
	}
	return trainOut, valOut, testOut
}

// concat returns a new pool; neither input is aliased.
func concat(a, b dataset.Pool) dataset.Pool {
	out := make(dataset.Pool, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func finalize(p dataset.Pool) dataset.Pool {
	return dataset.Normalize(p.FilterNonEmpty())
}
