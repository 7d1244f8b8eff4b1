package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/output"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, format string) error {
	defer setupLogging()()

	cfg, err := config.Load(projectRoot())
	if err != nil {
		cfg = config.NewConfig()
	}

	src, err := store.Open(cfg.Paths.DataDir + "/index.db")
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "open index", err)
	}
	defer src.Close()

	stats, err := src.Stats(ctx)
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "read stats", err)
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "engine: %s", stats.EngineName)
	out.Statusf("", "documents: %d", stats.DocumentCount)
	out.Statusf("", "chunks: %d", stats.ChunkCount)
	out.Statusf("", "relationships: %d", stats.RelationCount)

	if len(stats.ByStoreType) > 0 {
		out.Newline()
		out.Status("", "by store_type:")
		for _, b := range stats.ByStoreType {
			out.Statusf("", "  %s: %d", b.Key, b.Count)
		}
	}
	if len(stats.ByChunkType) > 0 {
		out.Newline()
		out.Status("", "by chunk_type:")
		for _, b := range stats.ByChunkType {
			out.Statusf("", "  %s: %d", b.Key, b.Count)
		}
	}
	return nil
}
