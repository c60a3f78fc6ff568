package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_Fingerprint_CodeOnly(t *testing.T) {
	a := Row{ProcessedFunc: "int f(){}", Target: 1, CVEID: "CVE-2020-0001"}
	b := Row{ProcessedFunc: "int f(){}", Target: 0, CVEID: "CVE-2022-9999"}
	c := Row{ProcessedFunc: "int g(){}"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "only code participates in the fingerprint")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestRow_Fingerprint_NormalizedText(t *testing.T) {
	a := Row{ProcessedFunc: "int f(){}\r\n"}
	b := Row{ProcessedFunc: "int f(){}"}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestDedup_KeepsFirstOccurrence(t *testing.T) {
	pool := Pool{
		{ProcessedFunc: "int f(){}", Target: 1},
		{ProcessedFunc: "void g(){}", Target: 0},
		{ProcessedFunc: "int f(){}", Target: 0},
	}

	out := Dedup(pool)
	require.Len(t, out, 2)
	assert.Equal(t, "int f(){}", out[0].ProcessedFunc)
	assert.Equal(t, 1, out[0].Target, "the first-seen row keeps its label")
	assert.Equal(t, "void g(){}", out[1].ProcessedFunc)
}

func TestDedup_NoDistinctFingerprintLost(t *testing.T) {
	pool := Pool{
		{ProcessedFunc: "a()"},
		{ProcessedFunc: "b()"},
		{ProcessedFunc: "a()"},
		{ProcessedFunc: "c()"},
	}

	out := Dedup(pool)
	require.Len(t, out, 3)

	seen := make(map[Fingerprint]bool)
	for _, r := range out {
		fp := r.Fingerprint()
		assert.False(t, seen[fp], "dedup output must not contain equal fingerprints")
		seen[fp] = true
	}
	for _, r := range pool {
		assert.True(t, seen[r.Fingerprint()], "every input fingerprint survives")
	}
}

func TestDedup_EmptyPool(t *testing.T) {
	assert.Empty(t, Dedup(nil))
}

func TestRemoveOverlap(t *testing.T) {
	reference := Pool{
		{ProcessedFunc: "int f(){}", Target: 1},
	}
	candidates := Pool{
		{ProcessedFunc: "void a(){}"},
		{ProcessedFunc: "int f(){}\r\n"}, // matches after normalization
		{ProcessedFunc: "void b(){}"},
	}

	out := RemoveOverlap(reference, candidates)
	require.Len(t, out, 2)
	assert.Equal(t, "void a(){}", out[0].ProcessedFunc)
	assert.Equal(t, "void b(){}", out[1].ProcessedFunc)

	// Reference pool is untouched.
	require.Len(t, reference, 1)
	assert.Equal(t, 1, reference[0].Target)
}

func TestRemoveOverlap_NoOverlap(t *testing.T) {
	reference := Pool{{ProcessedFunc: "x()"}}
	candidates := Pool{{ProcessedFunc: "y()"}, {ProcessedFunc: "z()"}}

	out := RemoveOverlap(reference, candidates)
	assert.Equal(t, candidates, out)
}
