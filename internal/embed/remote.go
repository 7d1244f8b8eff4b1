package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// RemoteConfig configures a RemoteEmbedder against any JSON HTTP
// embedding endpoint (local model server, hosted API, …), speaking a
// single `{"model": ..., "input": [...]}` → `{"embeddings": [[...]]}`
// shape, which is what most self-hosted embedding servers (including
// Ollama's own /api/embed) already speak.
type RemoteConfig struct {
	Endpoint  string        // base URL, e.g. "http://localhost:11434"
	Model     string        // model name sent in each request
	APIKey    string        // optional bearer token
	Timeout   time.Duration // per-request timeout
	BatchSize int
	PoolSize  int
}

// DefaultRemoteConfig returns sensible defaults for a local server.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Endpoint:  "http://localhost:11434",
		Model:     "nomic-embed-text",
		Timeout:   DefaultTimeout,
		BatchSize: DefaultBatchSize,
		PoolSize:  4,
	}
}

// RemoteEmbedder calls a remote HTTP embedding endpoint.
type RemoteEmbedder struct {
	client    *http.Client
	transport *http.Transport
	cfg       RemoteConfig

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*RemoteEmbedder)(nil)

type remoteEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type remoteEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewRemoteEmbedder creates a remote embedder against cfg.Endpoint.
func NewRemoteEmbedder(cfg RemoteConfig) *RemoteEmbedder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	return &RemoteEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		cfg:       cfg,
	}
}

func (e *RemoteEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(remoteEmbedRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.cfg.Endpoint+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed request returned %s: %s", resp.Status, string(b))
	}

	var out remoteEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed response length mismatch: got %d, want %d", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// Embed generates the embedding for a single text.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{PrepareText(text)})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, falling back to
// per-item requests on a batch-level failure.
func (e *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		prepared[i] = PrepareText(t)
	}

	return EmbedBatchWithFallback(ctx, prepared, e.request, func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.request(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vecs[0], nil
	})
}

// Dimensions returns the embedding dimension.
func (e *RemoteEmbedder) Dimensions() int { return Dimensions }

// ModelName returns the configured model name.
func (e *RemoteEmbedder) ModelName() string { return e.cfg.Model }

// Available probes the endpoint with a minimal embed call.
func (e *RemoteEmbedder) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := e.request(checkCtx, []string{"ping"})
	return err == nil
}

// Close releases the connection pool.
func (e *RemoteEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
