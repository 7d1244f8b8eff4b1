// Package cmd provides the CLI commands for knowledgeengine.
package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/bootstrap"
	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/klog"
)

var debugMode bool

// NewRootCmd creates the root command for the knowledgeengine CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "knowledgeengine",
		Short:        "Hybrid retrieval engine over a YAML document corpus",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.knowledgeengine/logs/")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newHybridQueryCmd())
	cmd.AddCommand(newFuseQueryCmd())
	cmd.AddCommand(newEnhancedQueryCmd())
	cmd.AddCommand(newSyncSidecarsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newRelateCmd())

	return cmd
}

// Execute runs the root command and returns a process exit code
// matching §6.6: 0 success, 1 caller error, 2 core error.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

// exitCodeFor classifies an error into §6.6's exit codes. NotFound and
// InvalidInput are caller errors (bad arguments, missing document), and
// so is anything not produced by the engine itself (cobra's own
// argument-count errors); every other kerrors.Kind is a core error.
func exitCodeFor(err error) int {
	switch kerrors.KindOf(err) {
	case kerrors.NotFound, kerrors.InvalidInput:
		return 1
	case "":
		return 1
	default:
		return 2
	}
}

// setupLogging initializes klog for CLI observability; each subcommand
// calls it and defers the returned cleanup.
func setupLogging() func() {
	cfg := klog.DefaultConfig()
	if !debugMode {
		cfg.Level = "warn"
	}
	logger, cleanup, err := klog.Setup(cfg)
	if err != nil {
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}

// openEngine loads configuration from dir and wires a ready-to-query
// engine through internal/bootstrap, the same path
// cmd/knowledgeengine-mcp uses.
func openEngine(ctx context.Context, dir string) (*bootstrap.Handle, error) {
	return bootstrap.Open(ctx, dir)
}

func projectRoot() string {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	return root
}
