package llm

import (
	"context"
)

// Provider defines the interface for text-completion collaborators.
// Each Generate call performs exactly one request; callers own any retry policy.
type Provider interface {
	// Generate submits a prompt and returns the collaborator's raw reply text
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// GenerationRequest contains all parameters needed for a single completion
type GenerationRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string // optional

	// ReasoningMode (minimal, low, medium, high) only applies to reasoning models
	ReasoningMode string
}

// GenerationResponse contains the unmodified reply from the LLM
type GenerationResponse struct {
	RawOutput string `json:"raw_output"`
	Model     string `json:"model"`
	Usage     Usage  `json:"usage"`
}

// Usage is the provider-neutral token accounting for one request
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// AsMap returns usage in the shape the logger and tracing helpers expect
func (u Usage) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}
