package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/catalog"
	"github.com/Conceptual-Machines/soundcard-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetPersona loads the collaborator's role description
func (l *Loader) GetPersona() (string, error) {
	return strings.TrimSpace(string(embedded.PersonaTxt)), nil
}

// GetParameterInstructions loads the parameter completion step
func (l *Loader) GetParameterInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.ParameterInstructionsTxt)), nil
}

// GetOptionCatalog loads the enumerated option lists
func (l *Loader) GetOptionCatalog() (*catalog.Catalog, error) {
	return catalog.Parse(embedded.OptionCatalogJSON)
}
