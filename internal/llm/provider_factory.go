package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
)

// ProviderFactory creates providers based on model name or explicit provider choice
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
	}
}

// GetProvider returns the appropriate provider for the given model/provider name
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	// If provider is explicitly specified, use that
	if providerName != "" {
		return f.getProviderByName(ctx, providerName)
	}

	// Otherwise, infer from model name
	return f.getProviderByModel(ctx, model)
}

// getProviderByName creates a provider by explicit name
func (f *ProviderFactory) getProviderByName(ctx context.Context, providerName string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case providerNameOpenAI:
		return f.openAI()
	case providerNameGemini:
		return f.gemini(ctx)
	default:
		return nil, &config.ConfigurationError{
			Setting: "LLM_PROVIDER",
			Reason:  fmt.Sprintf("has unknown value %q (allowed: openai, gemini)", providerName),
		}
	}
}

// getProviderByModel infers provider from model name
func (f *ProviderFactory) getProviderByModel(ctx context.Context, model string) (Provider, error) {
	if strings.HasPrefix(strings.ToLower(model), "gemini") {
		return f.gemini(ctx)
	}

	// GPT models and anything unknown use OpenAI
	return f.openAI()
}

func (f *ProviderFactory) openAI() (Provider, error) {
	if f.openaiAPIKey == "" {
		return nil, &config.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "is not set"}
	}
	return NewOpenAIProvider(f.openaiAPIKey), nil
}

func (f *ProviderFactory) gemini(ctx context.Context) (Provider, error) {
	return NewGeminiProvider(ctx, f.geminiAPIKey)
}
