package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
)

// Contract is the single description of the reply shape a request must produce.
// The prompt's narrative, worked example and schema block are all rendered from it,
// and the validator enforces its Cardinality, so the three cannot drift apart.
type Contract struct {
	CardType    models.CardType
	Pattern     string // "Keys" or "Chords"
	Element     []ElementField
	Cardinality Cardinality
	Fields      []string // every required top-level key, pattern array first
	example     map[string]any
}

// ElementField describes one field of a pattern array element
type ElementField struct {
	Name        string
	Type        string
	Description string
}

// Cardinality is the count rule the pattern array must satisfy
type Cardinality struct {
	Noun  string // "keys" or "chords"
	Count int
	Exact bool
}

// Allows reports whether a pattern array of length n satisfies the rule
func (c Cardinality) Allows(n int) bool {
	if c.Exact {
		return n == c.Count
	}
	return n <= c.Count
}

// Rule is the sentence used in the prompt, e.g. "exactly 3 chords" or "at most 5 keys"
func (c Cardinality) Rule() string {
	if c.Exact {
		return fmt.Sprintf("exactly %d %s", c.Count, c.Noun)
	}
	return fmt.Sprintf("at most %d %s", c.Count, c.Noun)
}

// Violation explains why a pattern array of length n was rejected
func (c Cardinality) Violation(n int) string {
	if c.Exact {
		return fmt.Sprintf("Expected %d %s, but got %d. The reply must contain %s.", c.Count, c.Noun, n, c.Rule())
	}
	return fmt.Sprintf("Expected at most %d %s, but got %d", c.Count, c.Noun, n)
}

// Echoed parameter keys of the generated record, in contract order
var echoedFields = []string{
	"Card Type",
	"Number of Keyboards",
	"Number of Keys to Play",
	"Number of Notes in the Card",
	"Difficulty Level",
	"Musical Style",
	"Mood",
	"Time Signature",
	"Tempo",
	"Key Signature",
	"Scale Type",
	"Chord Type",
	"Chord Progression",
}

var metadataFields = []string{
	models.FieldCardName,
	models.FieldDescription,
	models.FieldTip,
	models.FieldMusicTheory,
}

var keyElement = []ElementField{
	{Name: "note", Type: "string", Description: "pitch name with octave, e.g. C4, F#3, Bb2"},
	{Name: "order", Type: "integer", Description: "1-based play order"},
}

var chordElement = []ElementField{
	{Name: "name", Type: "string", Description: "chord name, e.g. C Major"},
	{Name: "notes", Type: "array of strings", Description: "at least 2 pitch names with octave"},
	{Name: "order", Type: "integer", Description: "1-based play order"},
}

// Worked example material. Key notes climb the C major scale from C4.
var (
	exampleKeyNotes = []string{"C", "D", "E", "F", "G", "A", "B"}
	exampleChords   = []models.Chord{
		{Name: "C Major", Notes: []string{"C4", "E4", "G4"}},
		{Name: "F Major", Notes: []string{"F4", "A4", "C5"}},
		{Name: "G Major", Notes: []string{"G4", "B4", "D5"}},
		{Name: "A Minor", Notes: []string{"A4", "C5", "E5"}},
	}
)

// NewContract derives the reply contract for a configuration
func NewContract(cfg *models.GenerationConfig) (*Contract, error) {
	c := &Contract{CardType: cfg.CardType, Pattern: cfg.CardType.PatternField()}

	switch cfg.CardType {
	case models.CardTypeSingleKeys:
		c.Element = keyElement
		c.Cardinality = Cardinality{Noun: "keys", Count: cfg.NumberOfKeysToPlay}
	case models.CardTypeChords:
		c.Element = chordElement
		c.Cardinality = Cardinality{Noun: "chords", Count: cfg.Keyboards(), Exact: true}
	default:
		return nil, fmt.Errorf("unsupported card type %q", cfg.CardType)
	}

	c.Fields = append([]string{c.Pattern}, echoedFields...)
	c.Fields = append(c.Fields, metadataFields...)
	c.example = buildExample(cfg, c)
	return c, nil
}

func buildExample(cfg *models.GenerationConfig, c *Contract) map[string]any {
	isChords := cfg.CardType == models.CardTypeChords

	var pattern []any
	for i := 0; i < c.Cardinality.Count; i++ {
		if isChords {
			ch := exampleChords[i%len(exampleChords)]
			pattern = append(pattern, map[string]any{"name": ch.Name, "notes": ch.Notes, "order": i + 1})
			continue
		}
		octave := 4 + i/len(exampleKeyNotes)
		note := fmt.Sprintf("%s%d", exampleKeyNotes[i%len(exampleKeyNotes)], octave)
		pattern = append(pattern, map[string]any{"note": note, "order": i + 1})
	}

	notesInCard := cfg.NumberOfNotesInCard
	if notesInCard == 0 {
		notesInCard = 3
	}

	example := map[string]any{
		c.Pattern:                     pattern,
		"Card Type":                   string(cfg.CardType),
		"Number of Keyboards":         nil,
		"Number of Keys to Play":      cfg.NumberOfKeysToPlay,
		"Number of Notes in the Card": notesInCard,
		"Difficulty Level":            valueOr(cfg.DifficultyLevel, "Beginner"),
		"Musical Style":               valueOr(cfg.MusicalStyle, "Classical"),
		"Mood":                        valueOr(cfg.Mood, "Calm"),
		"Time Signature":              valueOr(cfg.TimeSignature, "4/4"),
		"Tempo":                       valueOr(cfg.Tempo, "Slow"),
		"Key Signature":               valueOr(cfg.KeySignature, "C Major"),
		"Scale Type":                  valueOr(cfg.ScaleType, "Major"),
		"Chord Type":                  nil,
		"Chord Progression":           nil,
		models.FieldCardName:          "Gentle Sunrise Melody",
		models.FieldDescription:       "A simple, calming pattern perfect for beginners.",
		models.FieldTip:               "Focus on smooth transitions between notes.",
		models.FieldMusicTheory:       "This pattern introduces basic structure in the key of C major.",
	}
	if isChords {
		example["Number of Keyboards"] = c.Cardinality.Count
		example["Chord Type"] = valueOr(cfg.ChordType, "Major")
		example["Chord Progression"] = valueOr(cfg.ChordProgression, "I-IV-V")
	}
	return example
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Narrative is the step-2 instruction text describing the pattern to produce
func (c *Contract) Narrative() string {
	var sb strings.Builder
	sb.WriteString("Step 2: Pattern and Metadata Generation\n")
	fmt.Fprintf(&sb, "Provide the sequence of piano %s to be played as a %q array. Each element is an object with:\n",
		c.Cardinality.Noun, c.Pattern)
	for _, f := range c.Element {
		fmt.Fprintf(&sb, "- %q (%s): %s\n", f.Name, f.Type, f.Description)
	}
	fmt.Fprintf(&sb, "The %q array must contain %s.\n", c.Pattern, c.Cardinality.Rule())
	sb.WriteString("Every note must be playable on a standard 88-key piano (A0 to C8).\n\n")
	fmt.Fprintf(&sb, "Also provide %q (a creative title), %q (a brief explanation of the musical concept), ",
		models.FieldCardName, models.FieldDescription)
	fmt.Fprintf(&sb, "%q (a sentence or two of playing advice) and %q (a one-sentence explanation of the underlying theory).",
		models.FieldTip, models.FieldMusicTheory)
	return sb.String()
}

// Example renders the worked example reply as indented JSON
func (c *Contract) Example() string {
	// map keys marshal sorted, which keeps the example deterministic
	data, err := json.MarshalIndent(c.example, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SchemaBlock is the final, terse restatement of the output contract
func (c *Contract) SchemaBlock() string {
	var sb strings.Builder
	sb.WriteString("Output contract:\n")
	sb.WriteString("- Respond with a single valid JSON object and nothing else.\n")
	fmt.Fprintf(&sb, "- Required keys: %s.\n", quoteAll(c.Fields))
	names := make([]string, 0, len(c.Element))
	for _, f := range c.Element {
		names = append(names, fmt.Sprintf("%q: %s", f.Name, f.Type))
	}
	fmt.Fprintf(&sb, "- %q elements: {%s}.\n", c.Pattern, strings.Join(names, ", "))
	fmt.Fprintf(&sb, "- %q must contain %s.", c.Pattern, c.Cardinality.Rule())
	if c.CardType == models.CardTypeChords {
		sb.WriteString("\n- Every chord's \"notes\" array must contain at least 2 notes.")
	}
	return sb.String()
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
