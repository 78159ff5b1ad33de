package main

import (
	"github.com/Harshitk-cp/adaptplan/internal/buildconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "plannerctl",
	Short: "Find runtime adaptations for planner model bundles",
	Long: `plannerctl runs the adaptation planner against model bundles on disk and
moves bundles in and out of the planner database.

A bundle is a YAML or JSON file holding the model definition, its reference
dataset and one sensitivity curve per controllable feature.`,
	Version:       buildconfig.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("plannerctl version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

// newLogger writes to stderr so command output stays machine-readable.
func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if lvl, err := zap.ParseAtomicLevel(logLevel); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
