package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider names an Embedder implementation.
type Provider string

const (
	// ProviderRemote calls a remote HTTP embedding endpoint.
	ProviderRemote Provider = "remote"
	// ProviderHash uses the deterministic local hash embedder.
	ProviderHash Provider = "hash"
)

// ValidProviders lists the recognized provider names.
func ValidProviders() []string {
	return []string{string(ProviderRemote), string(ProviderHash)}
}

// ParseProvider converts a string to a Provider, defaulting to
// ProviderHash for anything unrecognized so a misconfigured deployment
// degrades to a working (if lower-quality) embedder rather than failing
// to start.
func ParseProvider(s string) Provider {
	switch strings.ToLower(s) {
	case "remote", "http":
		return ProviderRemote
	default:
		return ProviderHash
	}
}

// New builds an Embedder for the given provider, wrapping it with retry
// and cache layers. The KNOWLEDGEENGINE_EMBEDDER environment variable
// overrides the provider argument.
func New(ctx context.Context, provider Provider, cfg RemoteConfig) (Embedder, error) {
	if env := os.Getenv("KNOWLEDGEENGINE_EMBEDDER"); env != "" {
		provider = ParseProvider(env)
	}

	var inner Embedder
	switch provider {
	case ProviderRemote:
		remote := NewRemoteEmbedder(cfg)
		if !remote.Available(ctx) {
			return nil, fmt.Errorf("remote embedder at %s unavailable", cfg.Endpoint)
		}
		inner = remote
	case ProviderHash:
		inner = NewHashEmbedder()
	default:
		return nil, fmt.Errorf("unknown embedder provider %q", provider)
	}

	retrying := NewRetryingEmbedder(inner, DefaultRetryConfig())
	return NewCachedEmbedder(retrying, DefaultEmbeddingCacheSize), nil
}
