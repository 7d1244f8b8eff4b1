package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goldentooth/knowledgeengine/internal/output"
	"github.com/goldentooth/knowledgeengine/internal/rag"
)

type queryOptions struct {
	limit       int
	storeFilter string
	chunkType   string
	threshold   float64
	format      string
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a question against the indexed corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of sources")
	cmd.Flags().StringVarP(&opts.storeFilter, "store", "s", "", "restrict to one store_type")
	cmd.Flags().StringVar(&opts.chunkType, "chunk-type", "", "restrict to one chunk_type")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "minimum similarity score")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, question string, opts queryOptions) error {
	defer setupLogging()()

	handle, err := openEngine(ctx, projectRoot())
	if err != nil {
		return err
	}
	defer handle.Close()

	result, err := handle.Engine.Query(ctx, question, rag.QueryOptions{
		Limit:            opts.limit,
		StoreFilter:      opts.storeFilter,
		ChunkTypeFilter:  opts.chunkType,
		PrioritizeChunks: true,
		Threshold:        opts.threshold,
	})
	if err != nil {
		return err
	}

	return renderResult(cmd, opts.format, result)
}

// renderResult writes a *rag.Result in either plain text or JSON.
func renderResult(cmd *cobra.Command, format string, result *rag.Result) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := output.New(cmd.OutOrStdout())
	if result.Answer != "" {
		out.Newline()
		fmt.Fprintln(cmd.OutOrStdout(), result.Answer)
		out.Newline()
	} else if result.Metadata["error"] == true {
		out.Warning("no answer generated (generator unavailable or failed)")
	}

	out.Statusf("", "%d source(s):", len(result.Sources))
	for _, s := range result.Sources {
		out.Statusf("", "[%d] %s (%s, score %.3f)", s.Index, s.Title, s.ChunkID, s.Score)
	}
	return nil
}
