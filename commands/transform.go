package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/c360studio/vulncorpus/config"
	"github.com/c360studio/vulncorpus/dataset"
	"github.com/c360studio/vulncorpus/metric"
	"github.com/c360studio/vulncorpus/source"
)

func newTransformCommand() *cobra.Command {
	var (
		configPath string
		trainPath  string
		valPath    string
		testPath   string
		allPattern string
		outDir     string
		format     string
		language   string
		seed       uint64
		trainRatio float64
		valRatio   float64
		testRatio  float64
		metricAddr string
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform a raw corpus into canonical train/val/test CSVs",
		Long: `Transform reads line-delimited JSON records, extracts canonical
(code, label, fix, metadata) rows and writes train.csv, val.csv and
test.csv. Supply either pre-split inputs (--train/--val/--test) or one
combined input (--all) to be split stratified by label.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("train") {
				cfg.Input.Train = trainPath
			}
			if flags.Changed("val") {
				cfg.Input.Val = valPath
			}
			if flags.Changed("test") {
				cfg.Input.Test = testPath
			}
			if flags.Changed("all") {
				cfg.Input.All = allPattern
			}
			if flags.Changed("out") {
				cfg.Output.Dir = outDir
			}
			if flags.Changed("format") {
				cfg.Input.Format = format
			}
			if flags.Changed("language") {
				cfg.Input.Language = language
			}
			if flags.Changed("seed") {
				cfg.Split.Seed = seed
			}
			if flags.Changed("train-ratio") {
				cfg.Split.TrainRatio = trainRatio
			}
			if flags.Changed("val-ratio") {
				cfg.Split.ValRatio = valRatio
			}
			if flags.Changed("test-ratio") {
				cfg.Split.TestRatio = testRatio
			}
			if flags.Changed("metrics-addr") {
				cfg.Output.MetricsAddr = metricAddr
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runTransform(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&trainPath, "train", "", "Pre-split train JSONL path")
	cmd.Flags().StringVar(&valPath, "val", "", "Pre-split val JSONL path")
	cmd.Flags().StringVar(&testPath, "test", "", "Pre-split test JSONL path")
	cmd.Flags().StringVar(&allPattern, "all", "", "Combined corpus JSONL path or glob (** supported)")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	cmd.Flags().StringVar(&format, "format", config.FormatDetail, "Record shape (detail, flat)")
	cmd.Flags().StringVar(&language, "language", dataset.DefaultLanguage, "Language gate for flat records")
	cmd.Flags().Uint64Var(&seed, "seed", 123456, "Split shuffle seed")
	cmd.Flags().Float64Var(&trainRatio, "train-ratio", 0.8, "Train split ratio")
	cmd.Flags().Float64Var(&valRatio, "val-ratio", 0.1, "Val split ratio")
	cmd.Flags().Float64Var(&testRatio, "test-ratio", 0.1, "Test split ratio")
	cmd.Flags().StringVar(&metricAddr, "metrics-addr", "", "Serve /metrics on this address during the run")

	return cmd
}

func runTransform(cfg *config.Config) error {
	logger := runLogger()
	metrics := metric.New()
	metrics.Serve(cfg.Output.MetricsAddr, logger)

	opts := source.Options{Language: cfg.Input.Language, Logger: logger}

	perSplit := cfg.Input.Train != "" && cfg.Input.Val != "" && cfg.Input.Test != ""
	switch {
	case perSplit:
		return transformPerSplit(cfg, opts, metrics, logger)
	case cfg.Input.All != "":
		return transformCombined(cfg, opts, metrics, logger)
	default:
		return fmt.Errorf("provide either per-split inputs (--train/--val/--test) or a combined input (--all)")
	}
}

// transformPerSplit converts each pre-split file independently; no
// splitting happens.
func transformPerSplit(cfg *config.Config, opts source.Options, metrics *metric.Metrics, logger *slog.Logger) error {
	splits := []struct {
		name string
		in   string
	}{
		{"train", cfg.Input.Train},
		{"val", cfg.Input.Val},
		{"test", cfg.Input.Test},
	}

	for _, split := range splits {
		pool, stats, err := buildFile(split.in, cfg.Input.Format, opts)
		if err != nil {
			return err
		}
		metrics.ObserveBuild(stats.Records, stats.Kept, stats.Skips())
		logger.Info("built split", append([]any{slog.String("split", split.name), slog.String("input", split.in)}, stats.Attrs()...)...)

		if err := writeSplit(cfg.Output.Dir, split.name, dataset.Normalize(pool), false, metrics, logger); err != nil {
			return err
		}
	}
	return nil
}

// transformCombined reads every file the input pattern matches into one
// pool and splits it stratified by label.
func transformCombined(cfg *config.Config, opts source.Options, metrics *metric.Metrics, logger *slog.Logger) error {
	paths, err := resolveInputs(cfg.Input.All)
	if err != nil {
		return err
	}

	var pool dataset.Pool
	var stats source.Stats
	for _, path := range paths {
		filePool, fileStats, err := buildFile(path, cfg.Input.Format, opts)
		if err != nil {
			return err
		}
		pool = append(pool, filePool...)
		stats.Add(fileStats)
	}
	metrics.ObserveBuild(stats.Records, stats.Kept, stats.Skips())
	logger.Info("built combined corpus", append([]any{slog.Int("inputs", len(paths))}, stats.Attrs()...)...)

	train, val, test, err := dataset.Split(dataset.Normalize(pool), cfg.Split.Seed, cfg.Split.Ratios())
	if err != nil {
		return err
	}

	for _, split := range []struct {
		name string
		pool dataset.Pool
	}{{"train", train}, {"val", val}, {"test", test}} {
		if err := writeSplit(cfg.Output.Dir, split.name, split.pool, false, metrics, logger); err != nil {
			return err
		}
	}
	return nil
}

// buildFile streams one JSONL file through the format's builder.
func buildFile(path, format string, opts source.Options) (dataset.Pool, source.Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, source.Stats{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return buildReader(f, format, opts)
}

func buildReader(r io.Reader, format string, opts source.Options) (dataset.Pool, source.Stats, error) {
	if format == config.FormatFlat {
		return source.BuildFlatRows(r, opts)
	}
	return source.BuildRows(r, opts)
}

// writeSplit persists one pool and logs its size and label distribution.
func writeSplit(dir, name string, pool dataset.Pool, withIndex bool, metrics *metric.Metrics, logger *slog.Logger) error {
	path := filepath.Join(dir, name+".csv")
	if err := dataset.WriteFile(path, dataset.ToTable(pool, withIndex)); err != nil {
		return err
	}
	metrics.ObserveWrite(name, len(pool))
	logger.Info("wrote split",
		slog.String("split", name),
		slog.String("path", path),
		slog.Int("rows", len(pool)),
		slog.Any("label_dist", pool.LabelDist()))
	return nil
}

// resolveInputs expands a path or glob pattern to a sorted list of files.
// Matching nothing is fatal: a run without input cannot produce a corpus.
func resolveInputs(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("input file: %w", err)
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if !info.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files match %q", pattern)
	}
	sort.Strings(files)
	return files, nil
}

func containsGlob(pattern string) bool {
	for _, ch := range pattern {
		switch ch {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
