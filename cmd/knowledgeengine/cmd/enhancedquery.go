package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/rag"
)

type enhancedQueryOptions struct {
	storeFilter   string
	domainContext string
	maxClusters   int
	format        string
}

func newEnhancedQueryCmd() *cobra.Command {
	var opts enhancedQueryOptions

	cmd := &cobra.Command{
		Use:   "enhanced-query <question>",
		Short: "Answer a question by expanding it into multiple search strategies and merging them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnhancedQuery(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.storeFilter, "store", "s", "", "restrict to one store_type")
	cmd.Flags().StringVar(&opts.domainContext, "domain-context", "", "domain hint appended to the expanded search strategies")
	cmd.Flags().IntVar(&opts.maxClusters, "max-clusters", 0, "maximum number of fused clusters (0 uses the configured default)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runEnhancedQuery(ctx context.Context, cmd *cobra.Command, question string, opts enhancedQueryOptions) error {
	defer setupLogging()()

	handle, err := openEngine(ctx, projectRoot())
	if err != nil {
		return err
	}
	defer handle.Close()

	result, err := handle.Engine.EnhancedQuery(ctx, question, rag.EnhancedOptions{
		StoreFilter:   opts.storeFilter,
		DomainContext: opts.domainContext,
		MaxClusters:   opts.maxClusters,
	})
	if err != nil {
		return err
	}

	return renderResult(cmd, opts.format, result)
}
