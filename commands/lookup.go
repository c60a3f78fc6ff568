package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/vulncorpus/dataset"
)

func newLookupCommand() *cobra.Command {
	var (
		csvPath string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "lookup <indices>",
		Short: "Extract rows from a materialized split by index",
		Long: `Lookup reads a materialized split CSV and prints the rows matching a
set of 0-based dataset indices, as reported in evaluation logs. Indices
are accepted as "2,67,71" or "[2, 67, 71]". When the file carries an
index column it is matched by value, otherwise by row position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				return fmt.Errorf("--csv is required")
			}
			indices, err := parseIndices(args[0])
			if err != nil {
				return err
			}
			if len(indices) == 0 {
				return fmt.Errorf("no valid indices given")
			}
			return runLookup(csvPath, outPath, indices)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Split CSV to look rows up in")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default: stdout)")

	return cmd
}

func runLookup(csvPath, outPath string, indices []int) error {
	table, err := dataset.ReadFile(csvPath)
	if err != nil {
		return err
	}

	want := make(map[int]bool, len(indices))
	for _, idx := range indices {
		want[idx] = true
	}

	selected := [][]string{table.Header}
	indexCells := table.Column(dataset.ColIndex)
	for i, row := range table.Rows {
		key := i
		if indexCells != nil {
			parsed, err := strconv.Atoi(strings.TrimSpace(indexCells[i]))
			if err != nil {
				continue
			}
			key = parsed
		}
		if want[key] {
			selected = append(selected, row)
		}
	}

	if len(selected) == 1 {
		return fmt.Errorf("no rows match indices %v in %s", indices, csvPath)
	}

	if outPath == "" {
		w := csv.NewWriter(os.Stdout)
		if err := w.WriteAll(selected); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
		w.Flush()
		return w.Error()
	}
	return dataset.WriteFile(outPath, dataset.Table{Header: selected[0], Rows: selected[1:]})
}

// parseIndices accepts a comma-separated list, optionally wrapped in
// brackets. Duplicates collapse and the result is sorted.
func parseIndices(arg string) ([]int, error) {
	arg = strings.TrimSpace(arg)
	arg = strings.TrimPrefix(arg, "[")
	arg = strings.TrimSuffix(arg, "]")

	seen := make(map[int]bool)
	var indices []int
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("index must be non-negative, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			indices = append(indices, n)
		}
	}
	sort.Ints(indices)
	return indices, nil
}
