// Package commands wires the vulncorpus pipeline stages into the CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/c360studio/vulncorpus/config"
)

// Version is the CLI version reported by the version command.
const Version = "0.1.0"

// NewRoot builds the root command with all subcommands attached.
func NewRoot() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "vulncorpus",
		Short: "Vulnerability-detection corpus builder",
		Long: `Vulncorpus builds labeled, leakage-free training corpora for
vulnerability-detection models from nested vulnerability-patch records,
and augments them with synthetically generated samples without
contaminating evaluation splits.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(newTransformCommand())
	root.AddCommand(newAugmentCommand())
	root.AddCommand(newLookupCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vulncorpus version %s\n", Version)
		},
	})

	return root
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig loads the config file when given, defaults otherwise. Flag
// overrides are applied by the callers before validation.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// runLogger returns the default logger tagged with a fresh run ID, so
// interleaved runs stay distinguishable in shared logs.
func runLogger() *slog.Logger {
	return slog.Default().With("run_id", uuid.New().String()[:8])
}
