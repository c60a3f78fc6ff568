package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile reads a CSV file into a loose table. The first record is taken
// as the header; data rows may be ragged (short rows read as empty cells
// through Table accessors).
func ReadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Code cells embed commas and newlines; row widths are validated
	// against the header by the callers that care.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("read csv %s: empty file", path)
	}
	return Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteFile writes a table as UTF-8 CSV. The file is written to a
// temporary sibling first and renamed into place, so a failed run never
// leaves a partially written output behind.
func WriteFile(path string, t Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
