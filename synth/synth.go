// Package synth maps synthetically generated samples onto the canonical
// corpus schema. Synthetic data arrives as flat CSVs (one per class) from
// the generator; labels are forced by which file a row came from, never
// read from the file itself.
package synth

import (
	"fmt"
	"strings"

	"github.com/c360studio/vulncorpus/dataset"
)

// Column names recognized in generator output.
const (
	colCode       = "code"
	colIsComplete = "is_complete"
	colCWE        = "cwe"
)

// Options configure synthetic ingestion.
type Options struct {
	// CompleteOnly keeps only rows whose is_complete column is true,
	// when that column exists. Generators flag truncated functions
	// there; keeping them would add label noise.
	CompleteOnly bool
}

// Load reads the vulnerable and non-vulnerable generator CSVs and returns
// one normalized pool. Vulnerable rows are forced to target 1 and keep a
// CWE token extracted from their cwe column; non-vulnerable rows are
// forced to target 0 with the sentinel CWE. Rows with empty code are
// dropped. Callers dedup and overlap-check the result explicitly.
func Load(vulnPath, nonVulnPath string, opts Options) (dataset.Pool, error) {
	vuln, err := loadOne(vulnPath, 1, true, opts)
	if err != nil {
		return nil, fmt.Errorf("vulnerable synth csv: %w", err)
	}
	nonVuln, err := loadOne(nonVulnPath, 0, false, opts)
	if err != nil {
		return nil, fmt.Errorf("non-vulnerable synth csv: %w", err)
	}
	return append(vuln, nonVuln...), nil
}

func loadOne(path string, target int, withCWE bool, opts Options) (dataset.Pool, error) {
	table, err := dataset.ReadFile(path)
	if err != nil {
		return nil, err
	}

	code := codeColumn(table)
	if code == nil {
		return nil, fmt.Errorf("%s: missing %q or %q column", path, dataset.ColProcessedFunc, colCode)
	}

	complete := table.Column(colIsComplete)
	cwe := table.Column(colCWE)

	pool := make(dataset.Pool, 0, len(code))
	for i := range code {
		if opts.CompleteOnly && complete != nil && !truthy(complete[i]) {
			continue
		}

		body := dataset.CleanCode(code[i])
		if body == "" {
			continue
		}

		cweID := dataset.SentinelList
		if withCWE && cwe != nil {
			cweID = dataset.CanonicalCWE(cwe[i])
		}

		pool = append(pool, dataset.Row{
			ProcessedFunc:  body,
			Target:         target,
			VulFuncWithFix: dataset.Sentinel,
			CVEID:          dataset.Sentinel,
			CWEID:          cweID,
			CommitID:       dataset.Sentinel,
			FilePath:       dataset.Sentinel,
			FileLanguage:   dataset.DefaultLanguage,
		})
	}
	return dataset.Normalize(pool), nil
}

// codeColumn prefers the canonical processed_func column and falls back to
// the generator's raw code column.
func codeColumn(t dataset.Table) []string {
	if cells := t.Column(dataset.ColProcessedFunc); cells != nil {
		return cells
	}
	return t.Column(colCode)
}

// truthy interprets a CSV boolean cell the way generators write them.
func truthy(cell string) bool {
	switch strings.TrimSpace(strings.ToLower(cell)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
