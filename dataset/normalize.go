package dataset

import (
	"regexp"
	"strconv"
	"strings"
)

// Table is a loose tabular representation as read from CSV: a header and
// string cells. It carries no schema guarantees until passed through
// FromTable.
type Table struct {
	Header []string
	Rows   [][]string
}

// columnIndex returns the position of a header column, or -1.
func (t Table) columnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns the named column's cells, or nil when the column is
// absent.
func (t Table) Column(name string) []string {
	idx := t.columnIndex(name)
	if idx < 0 {
		return nil
	}
	cells := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			cells[i] = row[idx]
		}
	}
	return cells
}

// FromTable coerces an arbitrary table into a pool of canonical rows.
// Missing columns get documented defaults, row order is preserved and no
// row is dropped. The result still needs Normalize for value-level
// coercion.
func FromTable(t Table) Pool {
	cell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	idx := make(map[string]int, len(t.Header))
	for _, name := range Columns() {
		idx[name] = t.columnIndex(name)
	}

	pool := make(Pool, 0, len(t.Rows))
	for _, row := range t.Rows {
		pool = append(pool, Row{
			ProcessedFunc:  cell(row, idx[ColProcessedFunc]),
			Target:         ParseTarget(cell(row, idx[ColTarget])),
			VulFuncWithFix: cell(row, idx[ColVulFuncWithFix]),
			CVEID:          cell(row, idx[ColCVEID]),
			CWEID:          cell(row, idx[ColCWEID]),
			CommitID:       cell(row, idx[ColCommitID]),
			FilePath:       cell(row, idx[ColFilePath]),
			FileLanguage:   cell(row, idx[ColFileLanguage]),
			FlawLineIndex:  cell(row, idx[ColFlawLineIndex]),
			FlawLine:       cell(row, idx[ColFlawLine]),
		})
	}
	return pool
}

// Normalize coerces every row to the canonical value constraints: code
// cleaned, target clamped to {0,1}, sentinels substituted for empty
// identifier fields and the cwe_id cell rewritten to its list form.
// Idempotent; never reorders or drops rows.
func Normalize(p Pool) Pool {
	out := make(Pool, len(p))
	for i, r := range p {
		r.ProcessedFunc = CleanCode(r.ProcessedFunc)
		if r.Target != 1 {
			r.Target = 0
		}
		r.VulFuncWithFix = orDefault(r.VulFuncWithFix, Sentinel)
		r.CVEID = orDefault(r.CVEID, Sentinel)
		r.CWEID = CanonicalCWE(r.CWEID)
		r.CommitID = orDefault(r.CommitID, Sentinel)
		r.FilePath = orDefault(r.FilePath, Sentinel)
		r.FileLanguage = orDefault(r.FileLanguage, DefaultLanguage)
		r.FlawLineIndex = orDefault(r.FlawLineIndex, DefaultFlawLineIndex)
		out[i] = r
	}
	return out
}

// ToTable materializes a pool in canonical column order. When withIndex is
// set, a dense 0-based index column is prepended; this is the stable row
// identity downstream tooling looks rows up by.
func ToTable(p Pool, withIndex bool) Table {
	header := Columns()
	if withIndex {
		header = append([]string{ColIndex}, header...)
	}

	rows := make([][]string, 0, len(p))
	for i, r := range p {
		cells := []string{
			r.ProcessedFunc,
			strconv.Itoa(r.Target),
			r.VulFuncWithFix,
			r.CVEID,
			r.CWEID,
			r.CommitID,
			r.FilePath,
			r.FileLanguage,
			r.FlawLineIndex,
			r.FlawLine,
		}
		if withIndex {
			cells = append([]string{strconv.Itoa(i)}, cells...)
		}
		rows = append(rows, cells)
	}
	return Table{Header: header, Rows: rows}
}

// ParseTarget coerces a label cell to 0 or 1, defaulting to 0 when the
// cell is unparseable. This is the normalizer's lenient coercion; record
// extraction uses the strict form in the source package.
func ParseTarget(cell string) int {
	cell = strings.TrimSpace(strings.ToLower(cell))
	switch cell {
	case "1", "true":
		return 1
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && f == 1 {
		return 1
	}
	return 0
}

var cweToken = regexp.MustCompile(`(?i)CWE-\d+`)

// CanonicalCWE rewrites a cwe cell to the string-encoded list form, e.g.
// "CWE-119 (Buffer Overflow)" becomes "['CWE-119']". All distinct tokens
// are kept in first-seen order; a cell with no token becomes the sentinel
// list. Already-canonical cells round-trip unchanged.
func CanonicalCWE(cell string) string {
	matches := cweToken.FindAllString(cell, -1)
	if len(matches) == 0 {
		return SentinelList
	}

	seen := make(map[string]bool, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		token := strings.ToUpper(m)
		if !seen[token] {
			seen[token] = true
			tokens = append(tokens, "'"+token+"'")
		}
	}
	return "[" + strings.Join(tokens, ", ") + "]"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
