package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

type fuseQueryOptions struct {
	storeFilter    string
	semanticWeight float64
	lexicalWeight  float64
	maxClusters    int
	format         string
}

func newFuseQueryCmd() *cobra.Command {
	var opts fuseQueryOptions

	cmd := &cobra.Command{
		Use:   "fuse-query <question>",
		Short: "Answer a question, fusing clusters of related chunks into single answers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuseQuery(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.storeFilter, "store", "s", "", "restrict to one store_type")
	cmd.Flags().Float64Var(&opts.semanticWeight, "semantic-weight", 0, "override the semantic weight (0 uses configured default)")
	cmd.Flags().Float64Var(&opts.lexicalWeight, "lexical-weight", 0, "override the lexical weight (0 uses configured default)")
	cmd.Flags().IntVar(&opts.maxClusters, "max-clusters", 0, "maximum number of fused clusters (0 uses the configured default)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runFuseQuery(ctx context.Context, cmd *cobra.Command, question string, opts fuseQueryOptions) error {
	defer setupLogging()()

	handle, err := openEngine(ctx, projectRoot())
	if err != nil {
		return err
	}
	defer handle.Close()

	result, err := handle.Engine.QueryWithFusion(ctx, question, rag.FusionOptions{
		StoreFilter: opts.storeFilter,
		Weights:     rank.Weights{Semantic: opts.semanticWeight, Lexical: opts.lexicalWeight},
		MaxClusters: opts.maxClusters,
	})
	if err != nil {
		return err
	}

	return renderResult(cmd, opts.format, result)
}
