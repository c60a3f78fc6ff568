// Package dataset defines the canonical corpus schema and the pool
// operations built on it: normalization, content-hash deduplication and
// seeded stratified splitting.
package dataset

import "strings"

// Sentinel values for unavailable fields. SentinelList is the list-typed
// form used by the cwe_id column.
const (
	Sentinel     = "-"
	SentinelList = "['-']"
)

// Defaults for columns that are absent or empty after normalization.
const (
	DefaultLanguage      = "C"
	DefaultFlawLineIndex = "[]"
)

// Canonical column names, in output order.
const (
	ColIndex          = "index"
	ColProcessedFunc  = "processed_func"
	ColTarget         = "target"
	ColVulFuncWithFix = "vul_func_with_fix"
	ColCVEID          = "cve_id"
	ColCWEID          = "cwe_id"
	ColCommitID       = "commit_id"
	ColFilePath       = "file_path"
	ColFileLanguage   = "file_language"
	ColFlawLineIndex  = "flaw_line_index"
	ColFlawLine       = "flaw_line"
)

// Columns returns the canonical column order, without the index column.
func Columns() []string {
	return []string{
		ColProcessedFunc,
		ColTarget,
		ColVulFuncWithFix,
		ColCVEID,
		ColCWEID,
		ColCommitID,
		ColFilePath,
		ColFileLanguage,
		ColFlawLineIndex,
		ColFlawLine,
	}
}

// Row is one sample in the canonical schema. The index column is not part
// of the row value; it is assigned positionally at materialization.
type Row struct {
	ProcessedFunc  string
	Target         int
	VulFuncWithFix string
	CVEID          string
	CWEID          string
	CommitID       string
	FilePath       string
	FileLanguage   string
	FlawLineIndex  string
	FlawLine       string
}

// Pool is an ordered collection of rows representing one split or one
// unsplit corpus. Pool operations return new pools and never mutate their
// receiver.
type Pool []Row

// LabelDist returns the number of rows per target label.
func (p Pool) LabelDist() map[int]int {
	dist := make(map[int]int)
	for _, r := range p {
		dist[r.Target]++
	}
	return dist
}

// FilterNonEmpty returns the rows whose code field is non-empty after
// cleaning, preserving order.
func (p Pool) FilterNonEmpty() Pool {
	out := make(Pool, 0, len(p))
	for _, r := range p {
		if CleanCode(r.ProcessedFunc) != "" {
			out = append(out, r)
		}
	}
	return out
}

// CleanCode normalizes a code cell: null bytes are stripped, line endings
// are normalized to \n and outer whitespace is trimmed.
func CleanCode(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
