package llm

import (
	"strings"

	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// Reasoning modes accepted in LLM_REASONING_MODE
const (
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"
)

// Model families that accept a reasoning effort. Models like gpt-4o-mini reject it.
var reasoningModelPrefixes = []string{"gpt-5", "o1", "o3", "o4"}

// SupportsReasoning reports whether the Responses API accepts a reasoning effort for model
func SupportsReasoning(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// ReasoningEffort maps a reasoning mode onto the Responses API effort. Unknown modes use low.
func ReasoningEffort(mode string) shared.ReasoningEffort {
	switch strings.ToLower(mode) {
	case reasoningHigh:
		return responses.ReasoningEffortHigh
	case reasoningMedium:
		return responses.ReasoningEffortMedium
	case reasoningMinimal:
		return shared.ReasoningEffort(reasoningMinimal)
	default:
		return responses.ReasoningEffortLow
	}
}
