package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/embed"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/output"
	"github.com/goldentooth/knowledgeengine/internal/sidecar"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

func newSyncSidecarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-sidecars",
		Short: "Reconstruct any missing or stale sidecar vector files from the index",
		Long: `sync-sidecars treats the index's embeddings table as authoritative and
writes any sidecar file that is missing or whose checksum no longer
matches it. Use this after restoring the index database from backup,
or after changing the embedder model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncSidecars(cmd.Context(), cmd)
		},
	}
	return cmd
}

func runSyncSidecars(ctx context.Context, cmd *cobra.Command) error {
	defer setupLogging()()
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(projectRoot())
	if err != nil {
		cfg = config.NewConfig()
	}

	src, err := store.Open(cfg.Paths.DataDir + "/index.db")
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "open index", err)
	}
	defer src.Close()

	embedder, err := embed.New(ctx, embed.ParseProvider(cfg.Embedder.Provider), embed.RemoteConfig{
		Endpoint: cfg.Embedder.Endpoint,
		Model:    cfg.Embedder.Model,
		APIKey:   cfg.Embedder.APIKey,
	})
	if err != nil {
		return kerrors.Wrap(kerrors.EmbedderFailure, "create embedder", err)
	}
	defer embedder.Close()

	writer, err := sidecar.NewWriter(cfg.Paths.DataDir, embedder.ModelName(), embedder.Dimensions())
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "open sidecar writer", err)
	}

	docs, err := src.CorpusDocuments(ctx)
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "list corpus chunks", err)
	}
	chunkIDs := make([]string, len(docs))
	for i, d := range docs {
		chunkIDs[i] = d.ChunkID
	}

	written, err := sidecar.Sync(ctx, writer, src, chunkIDs, time.Now())
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "sync sidecars", err)
	}

	out.Successf("synced %d sidecar file(s) out of %d chunk(s)", written, len(chunkIDs))
	return nil
}
