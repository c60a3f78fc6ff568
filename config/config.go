// Package config provides configuration loading for the vulncorpus
// pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/vulncorpus/augment"
	"github.com/c360studio/vulncorpus/dataset"
)

// Input formats for the primary corpus.
const (
	FormatDetail = "detail"
	FormatFlat   = "flat"
)

// Config is the complete pipeline configuration. Command-line flags
// override individual values after loading.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Synth   SynthConfig   `yaml:"synth"`
	Output  OutputConfig  `yaml:"output"`
	Split   SplitConfig   `yaml:"split"`
	Augment AugmentConfig `yaml:"augment"`
}

// InputConfig locates and shapes the primary corpus.
type InputConfig struct {
	// Train/Val/Test are per-split JSONL paths for pre-split corpora.
	Train string `yaml:"train"`
	Val   string `yaml:"val"`
	Test  string `yaml:"test"`
	// All is a path or glob pattern for a combined corpus that the
	// pipeline splits itself.
	All string `yaml:"all"`
	// Format is the record shape: detail (nested patch records) or
	// flat (one function per record).
	Format string `yaml:"format"`
	// Language gates flat-format ingestion; see source.Options.
	Language string `yaml:"language"`
}

// SynthConfig locates generator output and selects cleanup steps.
type SynthConfig struct {
	Vuln    string `yaml:"vuln"`
	NonVuln string `yaml:"nonvuln"`
	// DedupWithin removes duplicate synthetic samples by code hash.
	DedupWithin bool `yaml:"dedup_within"`
	// DedupAgainstTrain removes synthetic samples whose code hash
	// appears in the real training split.
	DedupAgainstTrain bool `yaml:"dedup_against_train"`
	// CompleteOnly keeps only rows flagged complete by the generator.
	CompleteOnly bool `yaml:"complete_only"`
}

// OutputConfig controls where results land and how runs are observed.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// SplitConfig seeds and shapes the stratified split.
type SplitConfig struct {
	Seed       uint64  `yaml:"seed"`
	TrainRatio float64 `yaml:"train_ratio"`
	ValRatio   float64 `yaml:"val_ratio"`
	TestRatio  float64 `yaml:"test_ratio"`
}

// Ratios returns the split proportions as a dataset value.
func (s SplitConfig) Ratios() dataset.Ratios {
	return dataset.Ratios{Train: s.TrainRatio, Val: s.ValRatio, Test: s.TestRatio}
}

// AugmentConfig selects the leakage policy.
type AugmentConfig struct {
	Scope string `yaml:"scope"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	ratios := dataset.DefaultRatios()
	return &Config{
		Input: InputConfig{
			Format:   FormatDetail,
			Language: dataset.DefaultLanguage,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Split: SplitConfig{
			Seed:       123456,
			TrainRatio: ratios.Train,
			ValRatio:   ratios.Val,
			TestRatio:  ratios.Test,
		},
		Augment: AugmentConfig{
			Scope: string(augment.ScopeTrainOnly),
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Input.Format {
	case FormatDetail, FormatFlat:
	default:
		return fmt.Errorf("input.format must be %q or %q, got %q", FormatDetail, FormatFlat, c.Input.Format)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if err := c.Split.Ratios().Validate(); err != nil {
		return err
	}
	if _, err := augment.ParseScope(c.Augment.Scope); err != nil {
		return err
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}
