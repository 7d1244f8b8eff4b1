// Package generate implements the engine's answer-generator port (§6.2):
// generate(system_prompt, user_message, temperature, max_tokens) -> string.
// The default implementation calls an Ollama chat completion endpoint
// with an arbitrary system/user message pair.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator is the answer-generator port.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, temperature float32, maxTokens int) (string, error)
	Available(ctx context.Context) bool
	ModelName() string
}

// Default Ollama generator configuration.
const (
	DefaultModel   = "qwen2.5:7b"
	DefaultHost    = "http://localhost:11434"
	DefaultTimeout = 30 * time.Second
)

// Config configures an OllamaGenerator.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
}

// OllamaGenerator calls Ollama's /api/chat endpoint.
type OllamaGenerator struct {
	client *http.Client
	cfg    Config
}

// New creates an OllamaGenerator, applying defaults for any zero field.
func New(cfg Config) *OllamaGenerator {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OllamaGenerator{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Generate issues a single-turn chat completion against Ollama.
func (g *OllamaGenerator) Generate(ctx context.Context, systemPrompt, userMessage string, temperature float32, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Stream:  false,
		Options: chatOptions{Temperature: temperature, NumPredict: maxTokens},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := g.cfg.Host + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Available probes Ollama's /api/tags endpoint.
func (g *OllamaGenerator) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// ModelName returns the configured model.
func (g *OllamaGenerator) ModelName() string {
	return g.cfg.Model
}

// NullGenerator never reaches a network. It reports itself unavailable
// so the orchestrator always takes the graceful-degradation path
// (§5: return retrieved chunks without synthesis) rather than block on
// a generator that was never wired.
type NullGenerator struct{}

// Generate always fails; callers should check Available first.
func (NullGenerator) Generate(_ context.Context, _, _ string, _ float32, _ int) (string, error) {
	return "", fmt.Errorf("no answer generator configured")
}

// Available always reports false.
func (NullGenerator) Available(context.Context) bool { return false }

// ModelName identifies the stub.
func (NullGenerator) ModelName() string { return "none" }
