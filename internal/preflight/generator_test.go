package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goldentooth/knowledgeengine/internal/lifecycle"
)

func TestChecker_CheckGeneratorReady_OllamaUnreachable(t *testing.T) {
	checker := New()
	manager := lifecycle.NewOllamaManagerWithHost("http://127.0.0.1:1")

	result := checker.CheckGeneratorReady(context.Background(), manager, "qwen2.5:7b")

	assert.Equal(t, "generator_ready", result.Name)
	assert.False(t, result.Required)
	assert.NotEqual(t, StatusPass, result.Status)
}

func TestChecker_CheckGeneratorReady_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
	}))
	defer srv.Close()

	checker := New()
	manager := lifecycle.NewOllamaManagerWithHost(srv.URL)

	result := checker.CheckGeneratorReady(context.Background(), manager, "qwen2.5:7b")

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "not pulled")
}

func TestChecker_CheckGeneratorReady_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
	}))
	defer srv.Close()

	checker := New()
	manager := lifecycle.NewOllamaManagerWithHost(srv.URL)

	result := checker.CheckGeneratorReady(context.Background(), manager, "qwen2.5:7b")

	assert.Equal(t, StatusPass, result.Status)
}
