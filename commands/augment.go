package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/vulncorpus/augment"
	"github.com/c360studio/vulncorpus/config"
	"github.com/c360studio/vulncorpus/dataset"
	"github.com/c360studio/vulncorpus/metric"
	"github.com/c360studio/vulncorpus/synth"
)

func newAugmentCommand() *cobra.Command {
	var (
		configPath   string
		trainPath    string
		valPath      string
		testPath     string
		vulnPath     string
		nonVulnPath  string
		outDir       string
		scope        string
		dedupSynth   bool
		dedupTrain   bool
		completeOnly bool
		metricAddr   string
	)

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Merge synthetic samples into a transformed corpus",
		Long: `Augment merges generator output into a transformed corpus under an
explicit leakage policy. By default synthetic rows enter the training
split only, so evaluation stays on real-world samples. Missing val/test
inputs are auto-detected next to the train CSV.`,
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
			if flags.Changed("vuln") {
				cfg.Synth.Vuln = vulnPath
			}
			if flags.Changed("nonvuln") {
				cfg.Synth.NonVuln = nonVulnPath
			}
			if flags.Changed("out") {
				cfg.Output.Dir = outDir
			}
			if flags.Changed("scope") {
				cfg.Augment.Scope = scope
			}
			if flags.Changed("dedup-synth") {
				cfg.Synth.DedupWithin = dedupSynth
			}
			if flags.Changed("dedup-against-train") {
				cfg.Synth.DedupAgainstTrain = dedupTrain
			}
			if flags.Changed("complete-only") {
				cfg.Synth.CompleteOnly = completeOnly
			}
			if flags.Changed("metrics-addr") {
				cfg.Output.MetricsAddr = metricAddr
			}

			if cfg.Input.Train == "" {
				return fmt.Errorf("--train is required")
			}
			if cfg.Synth.Vuln == "" || cfg.Synth.NonVuln == "" {
				return fmt.Errorf("--vuln and --nonvuln are required")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runAugment(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&trainPath, "train", "", "Transformed train.csv path")
	cmd.Flags().StringVar(&valPath, "val", "", "Transformed val.csv path (auto-detected when omitted)")
	cmd.Flags().StringVar(&testPath, "test", "", "Transformed test.csv path (auto-detected when omitted)")
	cmd.Flags().StringVar(&vulnPath, "vuln", "", "Synthetic vulnerable CSV path")
	cmd.Flags().StringVar(&nonVulnPath, "nonvuln", "", "Synthetic non-vulnerable CSV path")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	cmd.Flags().StringVar(&scope, "scope", string(augment.ScopeTrainOnly), "Augmentation scope (train_only, all)")
	cmd.Flags().BoolVar(&dedupSynth, "dedup-synth", false, "Deduplicate synthetic samples by code hash")
	cmd.Flags().BoolVar(&dedupTrain, "dedup-against-train", false, "Drop synthetic samples overlapping the train split")
	cmd.Flags().BoolVar(&completeOnly, "complete-only", false, "Keep only synthetic rows flagged complete")
	cmd.Flags().StringVar(&metricAddr, "metrics-addr", "", "Serve /metrics on this address during the run")

	return cmd
}

func runAugment(cfg *config.Config) error {
	logger := runLogger()
	metrics := metric.New()
	metrics.Serve(cfg.Output.MetricsAddr, logger)

	train, err := loadSplitCSV(cfg.Input.Train)
	if err != nil {
		return fmt.Errorf("train split: %w", err)
	}

	val, valPath, err := loadOptionalSplit(cfg.Input.Val, cfg.Input.Train, "val")
	if err != nil {
		return err
	}
	test, testPath, err := loadOptionalSplit(cfg.Input.Test, cfg.Input.Train, "test")
	if err != nil {
		return err
	}
	logger.Info("loaded real corpus",
		slog.Int("train_rows", len(train)),
		slog.String("val", orNone(valPath)),
		slog.String("test", orNone(testPath)))

	synthPool, err := synth.Load(cfg.Synth.Vuln, cfg.Synth.NonVuln, synth.Options{
		CompleteOnly: cfg.Synth.CompleteOnly,
	})
	if err != nil {
		return err
	}
	metrics.ObserveBuild(len(synthPool), len(synthPool), nil)

	if cfg.Synth.DedupWithin {
		before := len(synthPool)
		synthPool = dataset.Dedup(synthPool)
		logger.Info("deduplicated synthetic pool", slog.Int("before", before), slog.Int("after", len(synthPool)))
	}
	if cfg.Synth.DedupAgainstTrain {
		before := len(synthPool)
		synthPool = dataset.RemoveOverlap(train, synthPool)
		logger.Info("removed train overlap", slog.Int("before", before), slog.Int("after", len(synthPool)))
	}
	logger.Info("synthetic pool ready",
		slog.Int("rows", len(synthPool)),
		slog.Any("label_dist", synthPool.LabelDist()))

	scope, err := augment.ParseScope(cfg.Augment.Scope)
	if err != nil {
		return err
	}
	if scope == augment.ScopeAll {
		logger.Warn("augmenting all splits; synthetic data will leak into evaluation")
	}

	trainOut, valOut, testOut := augment.Merge(train, val, test, synthPool, scope)

	if err := writeSplit(cfg.Output.Dir, "train_aug", trainOut, true, metrics, logger); err != nil {
		return err
	}
	if valOut != nil {
		if err := writeSplit(cfg.Output.Dir, "val", valOut, true, metrics, logger); err != nil {
			return err
		}
	} else {
		logger.Info("val split not available; not written")
	}
	if testOut != nil {
		if err := writeSplit(cfg.Output.Dir, "test", testOut, true, metrics, logger); err != nil {
			return err
		}
	} else {
		logger.Info("test split not available; not written")
	}
	return nil
}

// loadSplitCSV reads a transformed split into a normalized pool.
func loadSplitCSV(path string) (dataset.Pool, error) {
	table, err := dataset.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return dataset.Normalize(dataset.FromTable(table)), nil
}

// loadOptionalSplit loads an optional split, falling back to a sibling of
// the train CSV named <name>.csv. A missing sibling is not an error; an
// explicitly given path that fails to read is.
func loadOptionalSplit(path, trainPath, name string) (dataset.Pool, string, error) {
	if path == "" {
		candidate := filepath.Join(filepath.Dir(trainPath), name+".csv")
		if _, err := os.Stat(candidate); err != nil {
			return nil, "", nil
		}
		path = candidate
	}
	pool, err := loadSplitCSV(path)
	if err != nil {
		return nil, "", fmt.Errorf("%s split: %w", name, err)
	}
	return pool, path, nil
}

func orNone(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}
