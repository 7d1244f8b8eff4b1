package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

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

type ingestOptions struct {
	root string
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a directory of YAML documents into the index",
		Long: `Ingest walks a directory tree of YAML documents, chunks each one,
embeds the chunks, and stores them in the index and their sidecar
vector files.

The tree is laid out as {root}/{store_type}/{document_id}.yaml, e.g.
notes/deploy.yaml or github.repos/goldentooth/cluster.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "document directory to ingest (required)")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, opts ingestOptions) error {
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
	if err := sidecarWriter.BeginBatch(); err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "lock sidecar manifest", err)
	}
	defer sidecarWriter.EndBatch()

	docSource := source.NewDirSource(opts.root)
	docs, errs := docSource.Documents(ctx)
	chunker := chunk.New()

	ingested := 0
	for doc := range docs {
		n, err := ingestDocument(ctx, chunker, embedder, src, sidecarWriter, doc)
		if err != nil {
			out.Warningf("skipping %s/%s: %v", doc.StoreType, doc.DocumentID, err)
			continue
		}
		ingested++
		out.Statusf("", "ingested %s/%s (%d chunks)", doc.StoreType, doc.DocumentID, n)
	}
	if err := <-errs; err != nil {
		return kerrors.Wrap(kerrors.InvalidInput, "walk document root", err)
	}

	out.Successf("ingested %d document(s) from %s", ingested, opts.root)
	return nil
}

// ingestDocument implements the ingestion flow: chunk the payload,
// batch-embed the chunk contents, store the chunks and vectors, and
// write each chunk's sidecar file.
func ingestDocument(ctx context.Context, chunker chunk.Chunker, embedder embed.Embedder, src *store.Store, sidecarWriter *sidecar.Writer, doc source.Document) (int, error) {
	chunks, err := chunker.Chunk(doc.StoreType, doc.DocumentID, doc.Payload)
	if err != nil {
		return 0, fmt.Errorf("chunk document: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embed.EmbedBatchWithFallback(ctx, texts, embedder.EmbedBatch, embedder.Embed)
	if err != nil {
		return 0, kerrors.Wrap(kerrors.EmbedderFailure, "embed chunks", err)
	}

	if !chunk.ShouldChunk(doc.StoreType, doc.Payload) {
		return storeWholeDocument(ctx, src, sidecarWriter, doc, chunks[0], vectors[0])
	}

	records := make([]*store.ChunkRecord, len(chunks))
	vectorByID := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		records[i] = &store.ChunkRecord{
			ChunkID:       c.ChunkID,
			StoreType:     c.StoreType,
			DocumentID:    c.DocumentID,
			ChunkType:     c.ChunkType,
			Sequence:      c.Sequence,
			Content:       c.Content,
			SizeChars:     c.SizeChars,
			StartPosition: c.StartPosition,
			EndPosition:   c.EndPosition,
			Title:         c.Title,
			Metadata:      c.Metadata,
			IsChunk:       true,
			Vector:        vectors[i],
		}
		vectorByID[c.ChunkID] = vectors[i]
	}

	if err := src.StoreDocumentChunks(ctx, doc.StoreType, doc.DocumentID, records, vectorByID); err != nil {
		return 0, kerrors.Wrap(kerrors.StorageFailure, "store chunks", err)
	}

	now := time.Now()
	for _, c := range chunks {
		if _, err := sidecarWriter.WriteVector(doc.StoreType, c.ChunkID, vectorByID[c.ChunkID], now); err != nil {
			slog.Warn("sidecar_write_failed", slog.String("chunk_id", c.ChunkID), slog.Any("error", err))
		}
	}

	return len(chunks), nil
}

// storeWholeDocument persists a document chunk.ShouldChunk judged too
// small or unstructured to split as a single row via store.StoreDocument
// rather than store.StoreDocumentChunks.
func storeWholeDocument(ctx context.Context, src *store.Store, sidecarWriter *sidecar.Writer, doc source.Document, c *chunk.Chunk, vector []float32) (int, error) {
	record := &store.ChunkRecord{
		ChunkID:       c.ChunkID,
		StoreType:     c.StoreType,
		DocumentID:    c.DocumentID,
		ChunkType:     c.ChunkType,
		Sequence:      c.Sequence,
		Content:       c.Content,
		SizeChars:     c.SizeChars,
		StartPosition: c.StartPosition,
		EndPosition:   c.EndPosition,
		Title:         c.Title,
		Metadata:      c.Metadata,
		IsChunk:       false,
	}

	if err := src.StoreDocument(ctx, doc.StoreType, doc.DocumentID, record, vector); err != nil {
		return 0, kerrors.Wrap(kerrors.StorageFailure, "store document", err)
	}

	if _, err := sidecarWriter.WriteVector(doc.StoreType, c.ChunkID, vector, time.Now()); err != nil {
		slog.Warn("sidecar_write_failed", slog.String("chunk_id", c.ChunkID), slog.Any("error", err))
	}

	return 1, nil
}
