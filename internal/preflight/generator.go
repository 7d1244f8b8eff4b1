package preflight

import (
	"context"
	"fmt"

	"github.com/goldentooth/knowledgeengine/internal/lifecycle"
)

// CheckGeneratorReady checks whether the Ollama backend for answer
// generation is installed, running, and has the target model. This is
// non-critical: a failed check just means queries fall back to
// returning ranked sources without a synthesized answer.
func (c *Checker) CheckGeneratorReady(ctx context.Context, manager *lifecycle.OllamaManager, model string) CheckResult {
	result := CheckResult{
		Name:     "generator_ready",
		Required: false,
	}

	status, err := manager.Status(ctx, model)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot reach Ollama: %v", err)
		result.Details = "Answer generation will be unavailable; queries still return ranked sources."
		return result
	}

	if !status.Running {
		if !status.Installed && !manager.IsRemoteHost() {
			result.Status = StatusWarn
			result.Message = "Ollama is not installed"
			result.Details = lifecycle.InstallInstructions()
			return result
		}
		result.Status = StatusWarn
		result.Message = "Ollama is not running"
		result.Details = "Start it, or run with no generator configured to retrieve sources only."
		return result
	}

	if !status.HasModel {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("model %q is not pulled", model)
		result.Details = fmt.Sprintf("Run 'ollama pull %s' to enable answer generation.", model)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("Ollama running with model %q", model)
	return result
}
