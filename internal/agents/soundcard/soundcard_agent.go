package soundcard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
	"github.com/Conceptual-Machines/soundcard-api/internal/logger"
	"github.com/Conceptual-Machines/soundcard-api/internal/metrics"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/Conceptual-Machines/soundcard-api/internal/observability"
	"github.com/Conceptual-Machines/soundcard-api/internal/prompt"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
)

const maxChordKeysToPlay = 10

// SoundCardAgent turns a GenerationConfig into a validated sound card:
// check config, build prompt, invoke the collaborator, extract, validate.
type SoundCardAgent struct {
	provider      llm.Provider
	builder       *prompt.Builder
	model         string
	reasoningMode string
	timeout       time.Duration
	validate      *validator.Validate
	metrics       *metrics.Recorder
	langfuse      *observability.LangfuseClient
}

// Option customises a SoundCardAgent
type Option func(*SoundCardAgent)

// WithPromptBuilder replaces the builder that uses the embedded catalogs
func WithPromptBuilder(builder *prompt.Builder) Option {
	return func(a *SoundCardAgent) { a.builder = builder }
}

// WithMetrics sets where generation metrics go
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(a *SoundCardAgent) { a.metrics = recorder }
}

// WithLangfuse traces every collaborator call
func WithLangfuse(client *observability.LangfuseClient) Option {
	return func(a *SoundCardAgent) { a.langfuse = client }
}

// NewSoundCardAgent creates a sound card agent
func NewSoundCardAgent(cfg *config.Config, provider llm.Provider, opts ...Option) (*SoundCardAgent, error) {
	if provider == nil {
		return nil, errors.New("sound card agent needs a provider")
	}

	agent := &SoundCardAgent{
		provider:      provider,
		model:         cfg.LLMModel,
		reasoningMode: cfg.ReasoningMode,
		timeout:       cfg.GenerationTimeout,
		validate:      newConfigValidator(),
		langfuse:      observability.GetClient(),
	}
	for _, opt := range opts {
		opt(agent)
	}

	if agent.builder == nil {
		builder, err := prompt.NewDefaultPromptBuilder()
		if err != nil {
			return nil, fmt.Errorf("failed to create prompt builder: %w", err)
		}
		agent.builder = builder
	}

	log.Printf("🎹 SOUND CARD AGENT INITIALIZED:")
	log.Printf("   Provider: %s", provider.Name())
	log.Printf("   Model: %s", agent.model)

	return agent, nil
}

// Generate runs the whole pipeline once. Every failure is a *GenerationError
// naming the stage; no stage is retried.
func (a *SoundCardAgent) Generate(ctx context.Context, cfg *models.GenerationConfig) (*models.SoundCard, error) {
	startTime := time.Now()

	transaction := sentry.StartTransaction(ctx, "soundcard.generate")
	defer transaction.Finish()
	ctx = transaction.Context()

	transaction.SetTag("model", a.model)
	transaction.SetTag("provider", a.provider.Name())

	var usage llm.Usage
	fail := func(stage Stage, err error) error {
		transaction.SetTag("success", "false")
		transaction.SetTag("stage", string(stage))
		duration := time.Since(startTime)
		a.metrics.RecordGeneration(ctx, duration, string(stage))
		logger.LogGenerationRequest(ctx, a.model, duration, usage.AsMap(), string(stage), logger.Fields{"error": err.Error()})
		return &GenerationError{Stage: stage, Err: err}
	}

	request := *cfg
	request.CardType = models.NormalizeCardType(string(cfg.CardType))
	transaction.SetTag("card_type", string(request.CardType))
	log.Printf("🎹 SOUND CARD REQUEST STARTED (type: %s, model: %s)", request.CardType, a.model)

	if err := a.CheckConfig(&request); err != nil {
		return nil, fail(StageConfig, err)
	}

	promptText, err := a.builder.Build(&request)
	if err != nil {
		return nil, fail(StagePrompt, err)
	}
	logger.Debug("Prompt built", logger.Fields{
		"card_type":    string(request.CardType),
		"prompt_chars": len(promptText),
	})

	resp, err := a.invoke(ctx, &request, promptText)
	if err != nil {
		return nil, fail(StageInvoke, err)
	}
	usage = resp.Usage
	a.metrics.RecordTokenUsage(ctx, a.model, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)

	record, err := Extract(resp.RawOutput)
	if err != nil {
		log.Printf("❌ Could not extract a record from reply: %s", truncate(resp.RawOutput, maxReplyPreview))
		return nil, fail(StageExtract, err)
	}

	if err := Validate(record, &request); err != nil {
		return nil, fail(StageValidate, err)
	}

	card, err := toSoundCard(record, request.CardType)
	if err != nil {
		return nil, fail(StageValidate, err)
	}

	duration := time.Since(startTime)
	transaction.SetTag("success", "true")
	a.metrics.RecordGeneration(ctx, duration, "")
	logger.LogGenerationRequest(ctx, a.model, duration, usage.AsMap(), "", logger.Fields{
		"card_type": string(request.CardType),
		"card_name": card.Name,
	})
	log.Printf("✅ SOUND CARD COMPLETE: %q (%d elements) in %v", card.Name, len(card.Keys)+len(card.Chords), duration)

	return card, nil
}

const maxReplyPreview = 500

// invoke makes the single collaborator call, bounded by the configured timeout
func (a *SoundCardAgent) invoke(ctx context.Context, cfg *models.GenerationConfig, promptText string) (*llm.GenerationResponse, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	trace := a.langfuse.StartTrace(ctx, "soundcard.generate", map[string]interface{}{
		"card_type": string(cfg.CardType),
	})
	defer trace.Finish()
	generation := trace.Generation("collaborator", map[string]interface{}{"provider": a.provider.Name()})
	defer generation.Finish()

	log.Printf("🚀 SOUND CARD REQUEST: %s model=%s, prompt_chars=%d", a.provider.Name(), a.model, len(promptText))
	resp, err := a.provider.Generate(ctx, &llm.GenerationRequest{
		Model:         a.model,
		Prompt:        promptText,
		ReasoningMode: a.reasoningMode,
	})
	if err != nil {
		generation.Input(promptText)
		generation.SetLevel("ERROR")
		return nil, err
	}
	generation.LogReply(promptText, resp, nil)
	return resp, nil
}

// CheckConfig reports every range, presence and catalog problem in cfg
func (a *SoundCardAgent) CheckConfig(cfg *models.GenerationConfig) error {
	var problems []string

	if err := a.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	switch cfg.CardType {
	case models.CardTypeSingleKeys:
		if cfg.NumberOfKeyboards != nil {
			problems = append(problems, "numberOfKeyboards is only valid for Chords cards")
		}
	case models.CardTypeChords:
		if cfg.NumberOfKeyboards == nil {
			problems = append(problems, "numberOfKeyboards is required for Chords cards")
		}
		if cfg.NumberOfKeysToPlay > maxChordKeysToPlay {
			problems = append(problems, fmt.Sprintf("numberOfKeysToPlay must be at most %d for Chords cards", maxChordKeysToPlay))
		}
	default:
		if cfg.CardType != "" {
			problems = append(problems, fmt.Sprintf("cardType must be %q or %q", models.CardTypeSingleKeys, models.CardTypeChords))
		}
	}

	if err := a.builder.Options().Check(cfg); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return &InvalidConfigError{Problems: problems}
	}
	return nil
}

func newConfigValidator() *validator.Validate {
	v := validator.New()
	// report JSON names so messages match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// toSoundCard builds the typed view of a validated record
func toSoundCard(record map[string]any, cardType models.CardType) (*models.SoundCard, error) {
	card := &models.SoundCard{
		Type:        cardType,
		Name:        stringField(record, models.FieldCardName),
		Description: stringField(record, models.FieldDescription),
		Tip:         stringField(record, models.FieldTip),
		MusicTheory: stringField(record, models.FieldMusicTheory),
		Record:      record,
	}

	pattern, err := json.Marshal(record[cardType.PatternField()])
	if err != nil {
		return nil, err
	}
	if cardType == models.CardTypeChords {
		err = json.Unmarshal(pattern, &card.Chords)
	} else {
		err = json.Unmarshal(pattern, &card.Keys)
	}
	if err != nil {
		return nil, fmt.Errorf("%s array has an unexpected shape: %w", cardType.PatternField(), err)
	}
	return card, nil
}

func stringField(record map[string]any, key string) string {
	s, _ := record[key].(string)
	return s
}

// truncate cuts s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
