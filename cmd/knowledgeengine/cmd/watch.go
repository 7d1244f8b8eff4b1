package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/chunk"
	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/embed"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/output"
	"github.com/goldentooth/knowledgeengine/internal/sidecar"
	"github.com/goldentooth/knowledgeengine/internal/source"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

type watchOptions struct {
	root string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a document directory and re-ingest changed documents",
		Long: `watch follows a document directory for create, modify, and delete
events and re-ingests each changed document as it settles. It runs
until the command is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "document directory to watch (required)")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts watchOptions) error {
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

	sidecarWriter, err := sidecar.NewWriter(cfg.Paths.DataDir, embedder.ModelName(), embedder.Dimensions())
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "open sidecar writer", err)
	}

	docSource := source.NewDirSource(opts.root)
	chunker := chunk.New()

	out.Statusf("", "watching %s", opts.root)

	onChange := func(storeType, documentID string) {
		if !docSource.Exists(storeType, documentID) {
			if err := src.DeleteDocumentChunks(ctx, storeType, documentID); err != nil {
				slog.Warn("watch_delete_failed", slog.String("store_type", storeType), slog.String("document_id", documentID), slog.Any("error", err))
				return
			}
			out.Statusf("", "removed %s/%s", storeType, documentID)
			return
		}

		payload, err := docSource.Load(storeType, documentID)
		if err != nil {
			slog.Warn("watch_load_failed", slog.String("store_type", storeType), slog.String("document_id", documentID), slog.Any("error", err))
			return
		}

		if err := sidecarWriter.BeginBatch(); err != nil {
			slog.Warn("watch_lock_failed", slog.Any("error", err))
			return
		}
		defer sidecarWriter.EndBatch()

		n, err := ingestDocument(ctx, chunker, embedder, src, sidecarWriter, source.Document{
			StoreType:  storeType,
			DocumentID: documentID,
			Payload:    payload,
		})
		if err != nil {
			out.Warningf("re-ingest failed for %s/%s: %v", storeType, documentID, err)
			return
		}
		out.Statusf("", "re-ingested %s/%s (%d chunks)", storeType, documentID, n)
	}

	return source.Watch(ctx, opts.root, onChange)
}
