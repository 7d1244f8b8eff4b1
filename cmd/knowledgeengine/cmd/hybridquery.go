package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/rank"
)

type hybridQueryOptions struct {
	limit          int
	storeFilter    string
	semanticWeight float64
	lexicalWeight  float64
	explain        bool
	format         string
}

func newHybridQueryCmd() *cobra.Command {
	var opts hybridQueryOptions

	cmd := &cobra.Command{
		Use:   "hybrid-query <question>",
		Short: "Answer a question using parallel vector and BM25 search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHybridQuery(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of sources")
	cmd.Flags().StringVarP(&opts.storeFilter, "store", "s", "", "restrict to one store_type")
	cmd.Flags().Float64Var(&opts.semanticWeight, "semantic-weight", 0, "override the semantic weight (0 uses configured default)")
	cmd.Flags().Float64Var(&opts.lexicalWeight, "lexical-weight", 0, "override the lexical weight (0 uses configured default)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "attach per-source score explanations")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runHybridQuery(ctx context.Context, cmd *cobra.Command, question string, opts hybridQueryOptions) error {
	defer setupLogging()()

	handle, err := openEngine(ctx, projectRoot())
	if err != nil {
		return err
	}
	defer handle.Close()

	result, err := handle.Engine.HybridQuery(ctx, question, rag.HybridOptions{
		Limit:       opts.limit,
		StoreFilter: opts.storeFilter,
		Weights:     rank.Weights{Semantic: opts.semanticWeight, Lexical: opts.lexicalWeight},
		Explain:     opts.explain,
	})
	if err != nil {
		return err
	}

	return renderResult(cmd, opts.format, result)
}
