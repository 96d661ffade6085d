package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	// Provider name
	providerNameOpenAI = "openai"

	// Logging limits
	maxPreviewChars = 200
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
	apiKey string
}

// NewOpenAIProvider creates a new OpenAI provider. Extra options (base URL,
// HTTP client) are applied after the key; SDK retries are always disabled.
func NewOpenAIProvider(apiKey string, opts ...option.RequestOption) *OpenAIProvider {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(all...)
	return &OpenAIProvider{
		client: &client,
		apiKey: apiKey,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// Generate sends one request to the Responses API and returns the reply text unmodified
func (p *OpenAIProvider) Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, &config.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "is not set"}
	}

	startTime := time.Now()
	log.Printf("🎵 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, p.wrapError(err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	textOutput := resp.OutputText()
	if strings.TrimSpace(textOutput) == "" {
		transaction.SetTag("success", "false")
		return nil, ErrEmptyReply
	}

	usage := Usage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	log.Printf("📊 USAGE: input=%d, output=%d, total=%d", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (output: %s)", time.Since(startTime), truncateString(textOutput, maxPreviewChars))

	transaction.SetTag("success", "true")
	return &GenerationResponse{
		RawOutput: textOutput,
		Model:     request.Model,
		Usage:     usage,
	}, nil
}

func (p *OpenAIProvider) buildRequestParams(request *GenerationRequest) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(request.Prompt),
		},
	}
	if request.SystemPrompt != "" {
		params.Instructions = openai.String(request.SystemPrompt)
	}
	// Only include Reasoning for models that support it
	if SupportsReasoning(request.Model) {
		params.Reasoning = shared.ReasoningParam{
			Effort: ReasoningEffort(request.ReasoningMode),
		}
	}
	return params
}

// wrapError converts SDK failures into a TransportError, keeping the HTTP status when there is one
func (p *OpenAIProvider) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	transportErr := &TransportError{Provider: providerNameOpenAI, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		transportErr.StatusCode = apiErr.StatusCode
	}
	return transportErr
}

// truncateString cuts s to at most maxLen bytes without splitting a rune
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
