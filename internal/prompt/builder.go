package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/catalog"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
)

// Builder builds sound card generation prompts
type Builder struct {
	options               *catalog.Catalog
	persona               string
	parameterInstructions string
}

// NewPromptBuilder creates a builder around an option catalog, using the embedded prompt texts
func NewPromptBuilder(options *catalog.Catalog) (*Builder, error) {
	loader := NewPromptLoader()

	persona, err := loader.GetPersona()
	if err != nil {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	paramInstructions, err := loader.GetParameterInstructions()
	if err != nil {
		return nil, fmt.Errorf("failed to load parameter instructions: %w", err)
	}

	return &Builder{
		options:               options,
		persona:               persona,
		parameterInstructions: paramInstructions,
	}, nil
}

// NewDefaultPromptBuilder creates a builder with the embedded option catalog
func NewDefaultPromptBuilder() (*Builder, error) {
	options, err := NewPromptLoader().GetOptionCatalog()
	if err != nil {
		return nil, err
	}
	return NewPromptBuilder(options)
}

// Options returns the catalog the builder embeds in its prompts
func (b *Builder) Options() *catalog.Catalog {
	return b.options
}

// Build renders the complete prompt for a configuration. It is deterministic and has no side effects.
func (b *Builder) Build(cfg *models.GenerationConfig) (string, error) {
	contract, err := NewContract(cfg)
	if err != nil {
		return "", err
	}

	sections := []string{
		b.persona,
		"User-specified parameters:\n" + b.buildParameterList(cfg),
		b.parameterInstructions,
		"Allowed values:\n" + b.buildCatalogSection(),
		contract.Narrative(),
		"Step 3: Provide Your Response\n" +
			"Based on the complete set of parameters (user-specified and completed by you), respond in this format:\n\n" +
			contract.Example(),
		contract.SchemaBlock(),
	}

	return strings.Join(sections, "\n\n"), nil
}

// buildParameterList enumerates every parameter as "- key: value"
func (b *Builder) buildParameterList(cfg *models.GenerationConfig) string {
	params := cfg.Params()
	lines := make([]string, 0, len(params))
	for _, p := range params {
		lines = append(lines, fmt.Sprintf("- %s: %s", p.Key, p.Value))
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) buildCatalogSection() string {
	opts := b.options.Options()
	lines := make([]string, 0, len(opts))
	for _, o := range opts {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", o.Label, o.Param, strings.Join(o.Values, ", ")))
	}
	return strings.Join(lines, "\n")
}
