// Package source ingests raw corpus records and turns them into canonical
// dataset rows. It handles the nested detail-record shape of
// vulnerability-patch corpora as well as flat per-function records.
package source

import (
	"strconv"
	"strings"

	"github.com/c360studio/vulncorpus/dataset"
)

// slotKind tags the decoded shape of a function_before/function_after
// slot. Corpora store the slot as an object, a one-element list of
// objects, or a bare string; a list is folded to its first element.
type slotKind int

const (
	slotAbsent slotKind = iota
	slotObject
	slotText
)

// slot is the decoded before/after payload of a detail record.
type slot struct {
	kind slotKind
	obj  map[string]any
	text string
}

// decodeSlot folds the three stored shapes into a tagged slot value.
func decodeSlot(v any) slot {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return slot{kind: slotAbsent}
		}
		v = list[0]
	}
	switch t := v.(type) {
	case map[string]any:
		return slot{kind: slotObject, obj: t}
	case string:
		return slot{kind: slotText, text: t}
	default:
		return slot{kind: slotAbsent}
	}
}

// codeKeys are ordered fallback chains: the first key holding a non-empty
// string wins. The order is the extraction contract, kept as data so tests
// can pin it.
var (
	beforeSlotKeys   = []string{"function", "code_before", "code"}
	beforeDirectKeys = []string{"code_before", "code"}
	afterSlotKeys    = []string{"function", "code"}
	afterDirectKeys  = []string{"patch"}
)

// firstCode walks an ordered key chain and returns the first non-empty
// cleaned code string.
func firstCode(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if code := dataset.CleanCode(s); code != "" {
				return code
			}
		}
	}
	return ""
}

// Extraction is the resolved (before, label, after) triple of one detail
// record. HasLabel is false when no target-like field coerced to 0 or 1.
type Extraction struct {
	Before   string
	Label    int
	HasLabel bool
	After    string
}

// Extract resolves a detail record's before-code, label and after-code via
// the ordered fallback chains. Before-code comes from the function_before
// slot, else from direct code_before/code fields. The label comes from the
// slot object, else from the detail's own target field. After-code comes
// from the function_after slot, else the patch field, else it is a copy of
// before-code so a known-before row never carries an empty fix column.
func Extract(detail map[string]any) Extraction {
	var ex Extraction

	before := decodeSlot(detail["function_before"])
	switch before.kind {
	case slotObject:
		ex.Before = firstCode(before.obj, beforeSlotKeys)
		ex.Label, ex.HasLabel = CoerceLabel(before.obj["target"])
	case slotText:
		ex.Before = dataset.CleanCode(before.text)
	}
	if ex.Before == "" {
		ex.Before = firstCode(detail, beforeDirectKeys)
	}

	if !ex.HasLabel {
		ex.Label, ex.HasLabel = CoerceLabel(detail["target"])
	}

	after := decodeSlot(detail["function_after"])
	switch after.kind {
	case slotObject:
		ex.After = firstCode(after.obj, afterSlotKeys)
	case slotText:
		ex.After = dataset.CleanCode(after.text)
	}
	if ex.After == "" {
		ex.After = firstCode(detail, afterDirectKeys)
	}
	if ex.After == "" {
		ex.After = ex.Before
	}

	return ex
}

// CoerceLabel coerces a target-like value to a binary label. Booleans map
// to 0/1, numbers are kept only when exactly 0 or 1, and strings accept
// "0", "1", "true" and "false" case-insensitively. Anything else is
// unresolved; callers skip the record rather than defaulting.
func CoerceLabel(v any) (int, bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case float64:
		if t == 0 || t == 1 {
			return int(t), true
		}
	case int:
		if t == 0 || t == 1 {
			return t, true
		}
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		switch s {
		case "true":
			return 1, true
		case "false":
			return 0, true
		}
		if n, err := strconv.Atoi(s); err == nil && (n == 0 || n == 1) {
			return n, true
		}
	}
	return 0, false
}
