package source

import (
	"io"
	"strings"

	"github.com/c360studio/vulncorpus/dataset"
)

// cppMarkers are constructs that mark a function body as C++ rather than
// C. The heuristic is deliberately conservative: better to drop a C
// function than to mislabel C++ as C.
var cppMarkers = []string{
	"::",
	"template<",
	"std::",
	"using namespace",
	"new ",
	"delete ",
	"noexcept",
	"nullptr",
	"friend ",
	"virtual ",
	"public:",
	"private:",
	"protected:",
	"constexpr",
	"decltype",
	"typename",
	"explicit",
	"mutable",
	"static_cast<",
	"dynamic_cast<",
	"reinterpret_cast<",
	"const_cast<",
}

// looksLikeCPP reports whether a function body contains typical C++
// constructs.
func looksLikeCPP(code string) bool {
	lower := strings.ToLower(code)
	for _, marker := range cppMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// plausibleFunction is a coarse structural check: a function body should
// carry a parameter list and a block.
func plausibleFunction(code string) bool {
	return strings.Contains(code, "(") && strings.Contains(code, ")") &&
		strings.Contains(code, "{") && strings.Contains(code, "}")
}

// BuildFlatRows consumes flat-shaped JSONL (one function per record, keys
// func/target/cve/cwe/commit_id/file_name) and returns canonical rows plus
// skip counters. When Options.Language is "C", records that look like C++
// or fail the structural check are skipped as language mismatches. Flat
// records carry no fix pair, so vul_func_with_fix is the sentinel.
func BuildFlatRows(r io.Reader, opts Options) (dataset.Pool, Stats, error) {
	var pool dataset.Pool
	var stats Stats
	log := opts.logger()

	filterC := strings.EqualFold(opts.Language, "C")
	lang := opts.Language
	if lang == "" {
		lang = dataset.DefaultLanguage
	}

	err := eachJSONLine(r, &stats, log, func(obj map[string]any) {
		code := dataset.CleanCode(metaString(obj["func"]))
		if code == "" {
			stats.NoCode++
			return
		}

		if filterC && (looksLikeCPP(code) || !plausibleFunction(code)) {
			stats.LangMismatch++
			return
		}

		label, ok := CoerceLabel(obj["target"])
		if !ok {
			stats.NoLabel++
			log.Debug("flat record without label", "target", obj["target"])
			return
		}

		stats.Kept++
		pool = append(pool, dataset.Row{
			ProcessedFunc:  code,
			Target:         label,
			VulFuncWithFix: dataset.Sentinel,
			CVEID:          metaString(obj["cve"]),
			CWEID:          dataset.CanonicalCWE(metaString(obj["cwe"])),
			CommitID:       metaString(obj["commit_id"]),
			FilePath:       metaString(obj["file_name"]),
			FileLanguage:   lang,
		})
	})
	if err != nil {
		return nil, stats, err
	}
	return pool, stats, nil
}
