package soundcard

import (
	"fmt"
	"math"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/Conceptual-Machines/soundcard-api/internal/prompt"
)

const minNotesPerChord = 2

// Validate checks a parsed record against the request it answers. It reads
// the record only and returns a *ValidationError naming the first broken rule.
func Validate(record map[string]any, cfg *models.GenerationConfig) error {
	contract, err := prompt.NewContract(cfg)
	if err != nil {
		return invalid("Invalid card type")
	}

	switch cfg.CardType {
	case models.CardTypeSingleKeys:
		keys, ok := record[models.FieldKeys].([]any)
		if !ok {
			return invalid("Keys should be an array")
		}
		if !contract.Cardinality.Allows(len(keys)) {
			return invalid(contract.Cardinality.Violation(len(keys)))
		}
		return validateKeys(keys)

	case models.CardTypeChords:
		chords, ok := record[models.FieldChords].([]any)
		if !ok {
			return invalid("Chords should be an array")
		}
		if !contract.Cardinality.Allows(len(chords)) {
			return invalid(contract.Cardinality.Violation(len(chords)))
		}
		for _, c := range chords {
			chord, _ := c.(map[string]any)
			notes, ok := chord["notes"].([]any)
			if !ok || len(notes) < minNotesPerChord {
				return invalid("Each chord should have at least 2 notes")
			}
		}
		return validateChords(chords)
	}

	return invalid("Invalid card type")
}

func validateKeys(keys []any) error {
	for i, k := range keys {
		key, ok := k.(map[string]any)
		if !ok {
			return invalid(fmt.Sprintf("Key %d should be an object with note and order", i+1))
		}
		note, ok := key["note"].(string)
		if !ok {
			return invalid(fmt.Sprintf("Key %d should have a string note", i+1))
		}
		if _, err := PitchToMIDI(note); err != nil {
			return invalid(fmt.Sprintf("Key %d: %v", i+1, err))
		}
		if !isWholeNumber(key["order"]) {
			return invalid(fmt.Sprintf("Key %d should have an integer order", i+1))
		}
	}
	return nil
}

func validateChords(chords []any) error {
	for i, c := range chords {
		chord := c.(map[string]any)
		if _, ok := chord["name"].(string); !ok {
			return invalid(fmt.Sprintf("Chord %d should have a string name", i+1))
		}
		for _, n := range chord["notes"].([]any) {
			note, ok := n.(string)
			if !ok {
				return invalid(fmt.Sprintf("Chord %d notes should be strings", i+1))
			}
			if _, err := PitchToMIDI(note); err != nil {
				return invalid(fmt.Sprintf("Chord %d: %v", i+1, err))
			}
		}
		if !isWholeNumber(chord["order"]) {
			return invalid(fmt.Sprintf("Chord %d should have an integer order", i+1))
		}
	}
	return nil
}

// isWholeNumber accepts JSON numbers without a fractional part
func isWholeNumber(v any) bool {
	f, ok := v.(float64)
	return ok && f == math.Trunc(f)
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
