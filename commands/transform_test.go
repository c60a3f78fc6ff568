package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/vulncorpus/config"
	"github.com/c360studio/vulncorpus/dataset"
)

// detailLine renders one detail-shaped JSONL record with a unique body.
func detailLine(i, target int) string {
	return fmt.Sprintf(
		`{"cve_id": "CVE-2021-%04d", "cwe_id": ["CWE-119"], "details": {"function_before": {"function": "int f_%d(){}", "target": %d}}}`,
		i, i, target)
}

func writeJSONL(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func readSplit(t *testing.T, dir, name string) dataset.Pool {
	t.Helper()
	table, err := dataset.ReadFile(filepath.Join(dir, name+".csv"))
	require.NoError(t, err)
	return dataset.FromTable(table)
}

func TestRunTransform_Combined(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "all.jsonl")

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, detailLine(i, 1))
	}
	for i := 10; i < 50; i++ {
		lines = append(lines, detailLine(i, 0))
	}
	writeJSONL(t, in, lines)

	cfg := config.DefaultConfig()
	cfg.Input.All = in
	cfg.Output.Dir = filepath.Join(dir, "out")
	require.NoError(t, cfg.Validate())
	require.NoError(t, runTransform(cfg))

	train := readSplit(t, cfg.Output.Dir, "train")
	val := readSplit(t, cfg.Output.Dir, "val")
	test := readSplit(t, cfg.Output.Dir, "test")

	assert.Equal(t, 50, len(train)+len(val)+len(test))
	assert.Len(t, train, 40)
	assert.Len(t, val, 5)
	assert.Len(t, test, 5)

	// Class ratio preserved up to rounding.
	assert.InDelta(t, 8, train.LabelDist()[1], 1)
}

func TestRunTransform_Deterministic(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "all.jsonl")

	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, detailLine(i, i%2))
	}
	writeJSONL(t, in, lines)

	cfg := config.DefaultConfig()
	cfg.Input.All = in

	cfg.Output.Dir = filepath.Join(dir, "out1")
	require.NoError(t, runTransform(cfg))
	cfg.Output.Dir = filepath.Join(dir, "out2")
	require.NoError(t, runTransform(cfg))

	for _, name := range []string{"train.csv", "val.csv", "test.csv"} {
		b1, err := os.ReadFile(filepath.Join(dir, "out1", name))
		require.NoError(t, err)
		b2, err := os.ReadFile(filepath.Join(dir, "out2", name))
		require.NoError(t, err)
		assert.Equal(t, b1, b2, "%s must be byte-identical across runs", name)
	}
}

func TestRunTransform_PerSplit(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"train", "val", "test"} {
		writeJSONL(t, filepath.Join(dir, name+".jsonl"), []string{detailLine(i, 1)})
	}

	cfg := config.DefaultConfig()
	cfg.Input.Train = filepath.Join(dir, "train.jsonl")
	cfg.Input.Val = filepath.Join(dir, "val.jsonl")
	cfg.Input.Test = filepath.Join(dir, "test.jsonl")
	cfg.Output.Dir = filepath.Join(dir, "out")
	require.NoError(t, runTransform(cfg))

	assert.Len(t, readSplit(t, cfg.Output.Dir, "train"), 1)
	assert.Len(t, readSplit(t, cfg.Output.Dir, "val"), 1)
	assert.Len(t, readSplit(t, cfg.Output.Dir, "test"), 1)
}

func TestRunTransform_FlatFormat(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "flat.jsonl")
	writeJSONL(t, in, []string{
		`{"func": "int f() { return 0; }", "target": 1, "cve": "CVE-1"}`,
		`{"func": "void g() { std::cout; }", "target": 0}`,
	})

	cfg := config.DefaultConfig()
	cfg.Input.All = in
	cfg.Input.Format = config.FormatFlat
	cfg.Output.Dir = filepath.Join(dir, "out")
	require.NoError(t, runTransform(cfg))

	total := len(readSplit(t, cfg.Output.Dir, "train")) +
		len(readSplit(t, cfg.Output.Dir, "val")) +
		len(readSplit(t, cfg.Output.Dir, "test"))
	assert.Equal(t, 1, total, "the C++ record is filtered out")
}

func TestRunTransform_NoInputs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()

	err := runTransform(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provide either")
}

func TestRunTransform_MissingInputFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input.All = filepath.Join(t.TempDir(), "nope.jsonl")
	cfg.Output.Dir = t.TempDir()

	assert.Error(t, runTransform(cfg))
}

func TestResolveInputs_Glob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jsonl", "a.jsonl", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}\n"), 0644))
	}

	files, err := resolveInputs(filepath.Join(dir, "*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.jsonl"), files[0], "matches are sorted")
}

func TestResolveInputs_NoMatch(t *testing.T) {
	_, err := resolveInputs(filepath.Join(t.TempDir(), "*.jsonl"))
	assert.Error(t, err)
}

func TestResolveInputs_PlainPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	files, err := resolveInputs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}
