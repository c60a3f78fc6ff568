package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/vulncorpus/dataset"
)

func TestBuildFlatRows_KeepsCFunction(t *testing.T) {
	input := `{"func": "int add(int a, int b) { return a + b; }", "target": 1, "cve": "CVE-2020-1234", "cwe": ["CWE-190"], "commit_id": "deadbeef", "file_name": "math.c"}`

	pool, stats, err := BuildFlatRows(strings.NewReader(input), Options{Language: "C"})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, 1, stats.Kept)

	r := pool[0]
	assert.Equal(t, "int add(int a, int b) { return a + b; }", r.ProcessedFunc)
	assert.Equal(t, 1, r.Target)
	assert.Equal(t, dataset.Sentinel, r.VulFuncWithFix, "flat records carry no fix pair")
	assert.Equal(t, "CVE-2020-1234", r.CVEID)
	assert.Equal(t, "['CWE-190']", r.CWEID)
	assert.Equal(t, "deadbeef", r.CommitID)
	assert.Equal(t, "math.c", r.FilePath)
	assert.Equal(t, "C", r.FileLanguage)
}

func TestBuildFlatRows_SkipsCPP(t *testing.T) {
	lines := []string{
		`{"func": "void f() { std::cout << 1; }", "target": 0}`,
		`{"func": "int g() { auto p = new int; return *p; }", "target": 0}`,
		`{"func": "int ok(void) { return 0; }", "target": 0}`,
	}

	pool, stats, err := BuildFlatRows(strings.NewReader(strings.Join(lines, "\n")), Options{Language: "C"})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, 2, stats.LangMismatch)
	assert.Equal(t, "int ok(void) { return 0; }", pool[0].ProcessedFunc)
}

func TestBuildFlatRows_SkipsImplausibleBodies(t *testing.T) {
	input := `{"func": "int truncated(", "target": 1}`

	pool, stats, err := BuildFlatRows(strings.NewReader(input), Options{Language: "C"})
	require.NoError(t, err)
	assert.Empty(t, pool)
	assert.Equal(t, 1, stats.LangMismatch)
}

func TestBuildFlatRows_NoFilterWithoutLanguage(t *testing.T) {
	input := `{"func": "void f() { std::cout << 1; }", "target": 0}`

	pool, stats, err := BuildFlatRows(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Zero(t, stats.LangMismatch)
}

func TestBuildFlatRows_Counters(t *testing.T) {
	lines := []string{
		`{"target": 1}`,
		`{"func": "int f() { return 1; }", "target": "maybe"}`,
		`{"func": "int f() { return 1; }", "target": 1}`,
	}

	_, stats, err := BuildFlatRows(strings.NewReader(strings.Join(lines, "\n")), Options{Language: "C"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 1, stats.NoCode)
	assert.Equal(t, 1, stats.NoLabel)
	assert.Equal(t, 1, stats.Kept)
}

func TestLooksLikeCPP(t *testing.T) {
	assert.True(t, looksLikeCPP("std::vector<int> v;"))
	assert.True(t, looksLikeCPP("template<typename T> T id(T x) { return x; }"))
	assert.True(t, looksLikeCPP("int* p = new int;"))
	assert.False(t, looksLikeCPP("int add(int a, int b) { return a + b; }"))
	assert.False(t, looksLikeCPP("static void helper(void) { }"))
}
