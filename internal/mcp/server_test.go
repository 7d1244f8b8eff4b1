package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldentooth/knowledgeengine/internal/bm25"
	"github.com/goldentooth/knowledgeengine/internal/embed"
	"github.com/goldentooth/knowledgeengine/internal/generate"
	"github.com/goldentooth/knowledgeengine/internal/rag"
	"github.com/goldentooth/knowledgeengine/internal/store"
)

func seedTestStore(t *testing.T, s *store.Store, embedder embed.Embedder) {
	t.Helper()
	ctx := context.Background()

	chunks := []*store.ChunkRecord{
		{ChunkID: "notes.deploy.main", ChunkType: "note_section", Sequence: 1, Title: "Deploy Guide",
			Content: "The cluster uses nomad for scheduling jobs across every node."},
		{ChunkID: "notes.deploy.s2", ChunkType: "note_section", Sequence: 2, Title: "Deploy Guide",
			Content: "Nomad scheduling assigns jobs to nodes based on available resources."},
	}
	vectors := map[string][]float32{}
	for _, c := range chunks {
		vec, err := embedder.Embed(ctx, c.Content)
		require.NoError(t, err)
		vectors[c.ChunkID] = vec
	}
	require.NoError(t, s.StoreDocumentChunks(ctx, "notes", "deploy", chunks, vectors))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	embedder := embed.NewHashEmbedder()
	seedTestStore(t, s, embedder)

	scorer := bm25.New(bm25.DefaultConfig())
	require.NoError(t, scorer.Build(context.Background(), s))

	engine, err := rag.NewEngine(s, scorer, embedder, generate.NullGenerator{}, rag.DefaultConfig())
	require.NoError(t, err)

	srv, err := NewServer(engine, nil)
	require.NoError(t, err)
	return srv
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestServer_Info(t *testing.T) {
	srv := newTestServer(t)
	name, ver := srv.Info()
	assert.Equal(t, "knowledgeengine", name)
	assert.NotEmpty(t, ver)
}

func TestServer_Capabilities(t *testing.T) {
	srv := newTestServer(t)
	hasTools, hasResources := srv.Capabilities()
	assert.True(t, hasTools)
	assert.False(t, hasResources)
}

func TestServer_ListTools(t *testing.T) {
	srv := newTestServer(t)
	tools := srv.ListTools()
	names := make([]string, len(tools))
	for i, tl := range tools {
		names[i] = tl.Name
	}
	assert.ElementsMatch(t, []string{"query", "hybrid_query", "query_with_fusion", "enhanced_query", "query_with_relationships"}, names)
}

func TestMcpQueryHandler_RejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	_, _, err := srv.mcpQueryHandler(context.Background(), nil, QueryInput{})
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestMcpQueryHandler_ReturnsSources(t *testing.T) {
	srv := newTestServer(t)
	res, out, err := srv.mcpQueryHandler(context.Background(), nil, QueryInput{Query: "nomad scheduling", Limit: 5})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, out.Sources)
	assert.Equal(t, 1, out.Sources[0].Index)
	assert.False(t, out.GenerationUsed)
	require.NotEmpty(t, res.Content)
}

func TestMcpHybridQueryHandler_ReturnsSources(t *testing.T) {
	srv := newTestServer(t)
	_, out, err := srv.mcpHybridQueryHandler(context.Background(), nil, HybridQueryInput{Query: "nomad scheduling"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Sources)
}

func TestMcpFusionQueryHandler_ReturnsSources(t *testing.T) {
	srv := newTestServer(t)
	_, out, err := srv.mcpFusionQueryHandler(context.Background(), nil, FusionQueryInput{Query: "nomad scheduling"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Sources)
}

func TestMcpEnhancedQueryHandler_ReturnsSources(t *testing.T) {
	srv := newTestServer(t)
	_, out, err := srv.mcpEnhancedQueryHandler(context.Background(), nil, EnhancedQueryInput{
		Query:         "nomad scheduling",
		DomainContext: "infrastructure",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Sources)
}

func TestMcpRelationshipQueryHandler_ExpandsAcrossStoredEdges(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(t.TempDir() + "/index.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	embedder := embed.NewHashEmbedder()
	seedTestStore(t, s, embedder)

	edge := &store.Relationship{
		SourceID: "notes.deploy.main",
		TargetID: "notes.deploy.s2",
		Type:     store.RelationshipSequential,
		Strength: 1.0,
	}
	require.NoError(t, s.StoreChunkRelationships(ctx, []*store.Relationship{edge}))

	scorer := bm25.New(bm25.DefaultConfig())
	require.NoError(t, scorer.Build(ctx, s))

	engine, err := rag.NewEngine(s, scorer, embedder, generate.NullGenerator{}, rag.DefaultConfig())
	require.NoError(t, err)
	srv, err := NewServer(engine, nil)
	require.NoError(t, err)

	_, out, err := srv.mcpRelationshipQueryHandler(ctx, nil, RelationshipQueryInput{Query: "nomad scheduling", Limit: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Sources)
}

func TestServer_Serve_UnknownTransport(t *testing.T) {
	srv := newTestServer(t)
	err := srv.Serve(context.Background(), "sse")
	assert.Error(t, err)
}

func TestServer_Close(t *testing.T) {
	srv := newTestServer(t)
	assert.NoError(t, srv.Close())
}
