package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"

	defaultModel             = "gpt-4o-mini"
	defaultGenerationTimeout = 60
	defaultAttempts          = 1
)

// Config holds the application configuration
// Auth is handled by the fronting gateway; the database only stores saved cards
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Generation
	LLMProvider        string // "openai" or "gemini"; empty infers from the model name
	LLMModel           string
	ReasoningMode      string // reasoning effort for models that support it
	GenerationTimeout  time.Duration
	GenerationAttempts int // whole-pipeline attempts per request, 1 disables retries

	// Storage
	DatabaseURL string // postgres DSN; empty falls back to a local sqlite file

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse

	// Comma-separated browser origins allowed by CORS; empty allows any
	CORSAllowedOrigins []string

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	AuthMode string
}

// ConfigurationError reports a missing or invalid setting. It is raised before
// any network call is attempted.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", "")),
		LLMModel:           getEnv("LLM_MODEL", defaultModel),
		ReasoningMode:      strings.ToLower(getEnv("LLM_REASONING_MODE", "low")),
		GenerationTimeout:  time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", defaultGenerationTimeout)) * time.Second,
		GenerationAttempts: getEnvInt("GENERATION_ATTEMPTS", defaultAttempts),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AuthMode:           getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Provider returns the collaborator backend, inferring it from the model name when unset
func (c *Config) Provider() string {
	if c.LLMProvider != "" {
		return c.LLMProvider
	}
	if strings.HasPrefix(strings.ToLower(c.LLMModel), "gemini") {
		return providerGemini
	}
	return providerOpenAI
}

// Validate checks that the selected provider can be reached
func (c *Config) Validate() error {
	switch c.Provider() {
	case providerOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "is not set"}
		}
	case providerGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigurationError{Setting: "GEMINI_API_KEY", Reason: "is not set"}
		}
	default:
		return &ConfigurationError{Setting: "LLM_PROVIDER", Reason: fmt.Sprintf("has unknown value %q", c.LLMProvider)}
	}
	if c.LLMModel == "" {
		return &ConfigurationError{Setting: "LLM_MODEL", Reason: "is empty"}
	}
	if c.GenerationAttempts < 1 {
		return &ConfigurationError{Setting: "GENERATION_ATTEMPTS", Reason: "must be at least 1"}
	}
	return nil
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether CloudWatch metrics should be published
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
