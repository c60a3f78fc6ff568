package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/c360studio/vulncorpus/dataset"
)

// maxLineBytes bounds a single JSONL line. Whole-function code bodies get
// large; 64 MiB covers the biggest records seen in real corpora.
const maxLineBytes = 64 << 20

// Stats are the run-scoped diagnostic counters of one build. Row-level
// problems are counted here and never abort the run; the surrounding
// command reports them verbatim.
type Stats struct {
	Records       int
	BadJSON       int
	NoDetails     int
	DetailNotDict int
	NoCode        int
	NoLabel       int
	LangMismatch  int
	Kept          int
}

// Add accumulates counters from another build into s.
func (s *Stats) Add(other Stats) {
	s.Records += other.Records
	s.BadJSON += other.BadJSON
	s.NoDetails += other.NoDetails
	s.DetailNotDict += other.DetailNotDict
	s.NoCode += other.NoCode
	s.NoLabel += other.NoLabel
	s.LangMismatch += other.LangMismatch
	s.Kept += other.Kept
}

// Skips returns the per-reason skip counts keyed by their reporting names.
func (s Stats) Skips() map[string]int {
	return map[string]int{
		"skip_bad_json":        s.BadJSON,
		"skip_no_details":      s.NoDetails,
		"skip_detail_not_dict": s.DetailNotDict,
		"skip_no_code":         s.NoCode,
		"skip_no_label":        s.NoLabel,
		"skip_lang":            s.LangMismatch,
	}
}

// Attrs renders the counters as slog attributes for run summaries.
func (s Stats) Attrs() []any {
	return []any{
		slog.Int("records", s.Records),
		slog.Int("kept", s.Kept),
		slog.Int("skip_bad_json", s.BadJSON),
		slog.Int("skip_no_details", s.NoDetails),
		slog.Int("skip_detail_not_dict", s.DetailNotDict),
		slog.Int("skip_no_code", s.NoCode),
		slog.Int("skip_no_label", s.NoLabel),
		slog.Int("skip_lang", s.LangMismatch),
	}
}

// Options configure a build.
type Options struct {
	// Language filters flat-format records to one language using the
	// conservative marker heuristic; empty means no filtering. The
	// detail format records language metadata but does not filter.
	Language string

	// Logger receives per-record debug diagnostics. Nil disables them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// BuildRows consumes detail-shaped JSONL once and returns the canonical
// rows it yields plus the skip counters. A row is built only when
// before-code is non-empty and a label resolved; everything else is
// counted and skipped. Only I/O failures surface as errors.
func BuildRows(r io.Reader, opts Options) (dataset.Pool, Stats, error) {
	var pool dataset.Pool
	var stats Stats
	log := opts.logger()

	err := eachJSONLine(r, &stats, log, func(obj map[string]any) {
		details, ok := obj["details"]
		if !ok || details == nil {
			stats.NoDetails++
			log.Debug("record without details", "keys", mapKeys(obj))
			return
		}

		for _, item := range asList(details) {
			detail, ok := item.(map[string]any)
			if !ok {
				stats.DetailNotDict++
				continue
			}
			buildDetailRow(obj, detail, &pool, &stats, log)
		}
	})
	if err != nil {
		return nil, stats, err
	}
	return pool, stats, nil
}

// buildDetailRow extracts one detail record and appends the row when the
// extraction resolved. Cross-cutting metadata falls back from the detail
// to its parent record.
func buildDetailRow(obj, detail map[string]any, pool *dataset.Pool, stats *Stats, log *slog.Logger) {
	ex := Extract(detail)

	if ex.Before == "" {
		stats.NoCode++
		log.Debug("detail without code", "keys", mapKeys(detail))
		return
	}

	// Parent record label is the last fallback after the detail's own
	// target field.
	if !ex.HasLabel {
		ex.Label, ex.HasLabel = CoerceLabel(obj["target"])
	}
	if !ex.HasLabel {
		stats.NoLabel++
		log.Debug("detail without label", "target", detail["target"])
		return
	}

	lang := strings.TrimSpace(metaString(detail["file_language"]))
	if lang == "" {
		lang = strings.TrimSpace(metaString(obj["cve_language"]))
	}

	stats.Kept++
	*pool = append(*pool, dataset.Row{
		ProcessedFunc:  ex.Before,
		Target:         ex.Label,
		VulFuncWithFix: ex.After,
		CVEID:          metaString(obj["cve_id"]),
		CWEID:          dataset.CanonicalCWE(metaString(obj["cwe_id"])),
		CommitID:       metaString(obj["commit_id"]),
		FilePath:       metaString(detail["file_path"]),
		FileLanguage:   lang,
	})
}

// eachJSONLine streams line-delimited JSON, counting records and malformed
// lines. Blank lines are ignored.
func eachJSONLine(r io.Reader, stats *Stats, log *slog.Logger, fn func(obj map[string]any)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Records++

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			stats.BadJSON++
			log.Debug("malformed json line", "error", err)
			continue
		}
		fn(obj)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}

// asList wraps a scalar in a one-element list; lists pass through and nil
// becomes empty.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// metaString renders a metadata value for a text column. Lists are joined
// with spaces so multi-valued cells (cwe_id) survive canonicalization.
func metaString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := metaString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
