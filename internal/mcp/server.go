// Package mcp implements the Model Context Protocol (MCP) server exposing
// the retrieval engine's five query entry points as tools.
package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/rank"
	"github.com/goldentooth/knowledgeengine/pkg/version"
)

// Server bridges AI clients (Claude Code, Cursor) with the hybrid
// retrieval engine over MCP.
type Server struct {
	mcp    *mcp.Server
	engine *rag.Engine
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server wrapping an already-wired engine.
func NewServer(engine *rag.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		logger: logger,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "knowledgeengine",
			Version: version.Version,
		},
		nil, // ServerOptions - capabilities are inferred from registered tools
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "knowledgeengine", version.Version
}

// Capabilities returns whether tools and resources are enabled. This
// server exposes only tools; the document corpus has no per-file
// resource the way a codebase search server exposes file:// resources.
func (s *Server) Capabilities() (hasTools, hasResources bool) {
	return true, false
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "query",
			Description: "Answer a question against the indexed corpus using vector similarity search. Use this for straightforward questions about the indexed documents.",
		},
		{
			Name:        "hybrid_query",
			Description: "Answer a question using parallel vector and BM25 keyword search, combined into a single ranked source list. Use when the question contains exact terms (names, identifiers) that keyword search catches better than embeddings alone.",
		},
		{
			Name:        "query_with_fusion",
			Description: "Answer a question by clustering related chunks and synthesizing one answer per cluster. Use when a question likely has multiple distinct, non-overlapping answers in the corpus.",
		},
		{
			Name:        "enhanced_query",
			Description: "Answer a question with chunk fusion steered by a supplied domain hint. Use when you already know the subject area and want fusion tuned to it.",
		},
		{
			Name:        "query_with_relationships",
			Description: "Answer a question using hybrid search, then expand the retrieved sources across the stored chunk relationship graph (sequential, hierarchical, topical, cross_document). Use when the directly retrieved sources likely omit adjacent or linked context, such as a repository's other sections or a related document.",
		},
	}
}

func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	tools := s.ListTools()
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpQueryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpHybridQueryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpFusionQueryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpEnhancedQueryHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[4].Name, Description: tools[4].Description}, s.mcpRelationshipQueryHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

// mcpQueryHandler is the MCP SDK handler for the query tool.
func (s *Server) mcpQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	requestID := generateRequestID()
	s.logger.Info("query started", slog.String("request_id", requestID), slog.String("query", input.Query))

	result, err := s.engine.Query(ctx, input.Query, rag.QueryOptions{
		Limit:            clampLimit(input.Limit, 10, 1, 50),
		StoreFilter:      input.StoreType,
		ChunkTypeFilter:  input.ChunkType,
		PrioritizeChunks: true,
		Threshold:        input.Threshold,
	})
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	return toolResult(input.Query, result)
}

// mcpHybridQueryHandler is the MCP SDK handler for the hybrid_query tool.
func (s *Server) mcpHybridQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input HybridQueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	result, err := s.engine.HybridQuery(ctx, input.Query, rag.HybridOptions{
		Limit:       clampLimit(input.Limit, 10, 1, 50),
		StoreFilter: input.StoreType,
		Weights:     rank.Weights{Semantic: input.SemanticWeight, Lexical: input.LexicalWeight},
		Explain:     input.Explain,
	})
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	return toolResult(input.Query, result)
}

// mcpFusionQueryHandler is the MCP SDK handler for the query_with_fusion tool.
func (s *Server) mcpFusionQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input FusionQueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	result, err := s.engine.QueryWithFusion(ctx, input.Query, rag.FusionOptions{
		StoreFilter: input.StoreType,
		Weights:     rank.Weights{Semantic: input.SemanticWeight, Lexical: input.LexicalWeight},
		MaxClusters: input.MaxClusters,
	})
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	return toolResult(input.Query, result)
}

// mcpEnhancedQueryHandler is the MCP SDK handler for the enhanced_query tool.
func (s *Server) mcpEnhancedQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input EnhancedQueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	result, err := s.engine.EnhancedQuery(ctx, input.Query, rag.EnhancedOptions{
		StoreFilter:   input.StoreType,
		DomainContext: input.DomainContext,
		MaxClusters:   input.MaxClusters,
	})
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	return toolResult(input.Query, result)
}

// mcpRelationshipQueryHandler is the MCP SDK handler for the
// query_with_relationships tool.
func (s *Server) mcpRelationshipQueryHandler(ctx context.Context, _ *mcp.CallToolRequest, input RelationshipQueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == "" {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	result, err := s.engine.QueryWithRelationships(ctx, input.Query, rag.RelationshipOptions{
		Hybrid: rag.HybridOptions{
			Limit:       clampLimit(input.Limit, 10, 1, 50),
			StoreFilter: input.StoreType,
			Weights:     rank.Weights{Semantic: input.SemanticWeight, Lexical: input.LexicalWeight},
		},
		Radius:      input.Radius,
		MinStrength: input.MinStrength,
	})
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}

	return toolResult(input.Query, result)
}

// toolResult builds the CallToolResult text content alongside the
// structured output every query tool returns.
func toolResult(query string, result *rag.Result) (*mcp.CallToolResult, QueryOutput, error) {
	output := ToQueryOutput(result)
	toolRes := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Text: FormatQueryResult(query, result)},
		},
	}
	return toolRes, output, nil
}

// Serve runs the server until ctx is canceled. Only the stdio transport
// is implemented; the SDK's SSE transport is not wired up.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.Any("error", err))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
