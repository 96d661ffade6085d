package observability

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// GPT-4o pricing
	gpt4oInputPrice  = 0.0025
	gpt4oOutputPrice = 0.01

	// GPT-4o-mini pricing
	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006

	// GPT-4.1-mini pricing
	gpt41MiniInputPrice  = 0.0004
	gpt41MiniOutputPrice = 0.0016

	// Gemini 2.0 Flash pricing
	gemini20FlashInputPrice  = 0.0001
	gemini20FlashOutputPrice = 0.0004

	// Gemini 1.5 Pro pricing
	gemini15ProInputPrice  = 0.00125
	gemini15ProOutputPrice = 0.005

	defaultPricingModel = "gpt-4o-mini"
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all models
var PricingTable = map[string]ModelPricing{
	"gpt-4o": {
		InputPricePer1K:  gpt4oInputPrice,
		OutputPricePer1K: gpt4oOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
	"gpt-4.1-mini": {
		InputPricePer1K:  gpt41MiniInputPrice,
		OutputPricePer1K: gpt41MiniOutputPrice,
	},
	"gemini-2.0-flash": {
		InputPricePer1K:  gemini20FlashInputPrice,
		OutputPricePer1K: gemini20FlashOutputPrice,
	},
	"gemini-1.5-pro": {
		InputPricePer1K:  gemini15ProInputPrice,
		OutputPricePer1K: gemini15ProOutputPrice,
	},
}

// lookupPricing matches exact names first, then dated variants such as "gpt-4o-mini-2024-07-18"
func lookupPricing(model string) ModelPricing {
	if pricing, ok := PricingTable[model]; ok {
		return pricing
	}
	best := ""
	for name := range PricingTable {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return PricingTable[best]
	}
	return PricingTable[defaultPricingModel]
}

// CalculateCost estimates the cost in USD of one collaborator call
func CalculateCost(model string, usage llm.Usage) float64 {
	pricing := lookupPricing(model)

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + formatFloat(cost, costFormatPrecision)
}

// formatFloat formats a float with specified precision using strconv
func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
