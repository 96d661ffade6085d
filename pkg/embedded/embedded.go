package embedded

import (
	_ "embed"
)

// Embed prompt data files
//
//go:embed data/persona.txt
var PersonaTxt []byte

//go:embed data/parameter_instructions.txt
var ParameterInstructionsTxt []byte

//go:embed data/option_catalog.json
var OptionCatalogJSON []byte
