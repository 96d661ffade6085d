package soundcard

import (
	"fmt"
	"strings"
)

// Stage names the pipeline step a failure came from
type Stage string

const (
	StageConfig   Stage = "config"
	StagePrompt   Stage = "prompt"
	StageInvoke   Stage = "invoke"
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
)

// GenerationError is the single error type Generate returns. Err keeps the
// typed cause so callers can use errors.As on it.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("card generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// InvalidConfigError lists every problem found in a caller's GenerationConfig
type InvalidConfigError struct {
	Problems []string
}

func (e *InvalidConfigError) Error() string {
	return "invalid generation config: " + strings.Join(e.Problems, "; ")
}

// ParseError means no extraction strategy understood the reply. Raw is the reply verbatim.
type ParseError struct {
	Raw      string
	Attempts []error // one per strategy, in the order tried
}

func (e *ParseError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, a.Error())
	}
	return "reply did not match any supported format: " + strings.Join(reasons, "; ")
}

// ValidationError means the reply parsed but broke a shape or cardinality rule
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
