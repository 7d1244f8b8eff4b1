package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/config"
	"github.com/goldentooth/knowledgeengine/internal/kerrors"
	"github.com/goldentooth/knowledgeengine/internal/output"
	"github.com/goldentooth/knowledgeengine/internal/relate"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

type relateOptions struct {
	storeType string
	crossDoc  bool
}

func newRelateCmd() *cobra.Command {
	var opts relateOptions

	cmd := &cobra.Command{
		Use:   "relate",
		Short: "Analyze chunk relationships and store them in the index",
		Long: `relate reads every chunk in the index (or, with --store, every chunk of
one store_type), derives sequential and hierarchical edges from each
document's structure, and -- unless --cross-document=false -- topical
and cross_document edges from embedding similarity across the whole
corpus. Edges are upserted into the relationships table, decaying any
existing edge rather than overwriting it outright.

This is an explicit, on-demand analysis step: it is not run as part of
ingest, since cross-document comparison is O(n^2) in corpus size.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelate(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.storeType, "store", "", "restrict analysis to one store_type")
	cmd.Flags().BoolVar(&opts.crossDoc, "cross-document", true, "also compute topical and cross_document edges across the whole corpus")

	return cmd
}

func runRelate(ctx context.Context, cmd *cobra.Command, opts relateOptions) error {
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

	records, err := src.AllChunkRecords(ctx, opts.storeType)
	if err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "list chunk records", err)
	}

	chunks := relate.FromRecords(records)
	edges := relate.Analyze(chunks, opts.crossDoc)
	if len(edges) == 0 {
		out.Successf("analyzed %d chunk(s), found no relationships", len(chunks))
		return nil
	}

	if err := src.StoreChunkRelationships(ctx, edges); err != nil {
		return kerrors.Wrap(kerrors.StorageFailure, "store chunk relationships", err)
	}

	out.Successf("analyzed %d chunk(s), stored %d relationship(s)", len(chunks), len(edges))
	return nil
}
