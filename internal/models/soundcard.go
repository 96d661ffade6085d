package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CardType selects the shape of the generated pattern
type CardType string

const (
	CardTypeSingleKeys CardType = "Single Keys"
	CardTypeChords     CardType = "Chords"
)

// Unspecified is what the prompt shows for any parameter the caller left empty
const Unspecified = "unspecified"

// Pattern array names in the generated record
const (
	FieldKeys   = "Keys"
	FieldChords = "Chords"
)

// NormalizeCardType maps accepted spellings onto the canonical card type values.
// Unknown values are returned unchanged so validation can reject them.
func NormalizeCardType(raw string) CardType {
	switch strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(raw), "_", ""), " ", "")) {
	case "singlekeys":
		return CardTypeSingleKeys
	case "chords":
		return CardTypeChords
	default:
		return CardType(raw)
	}
}

// PatternField returns the name of the array the record must carry for this card type
func (t CardType) PatternField() string {
	if t == CardTypeChords {
		return FieldChords
	}
	return FieldKeys
}

// GenerationConfig is the caller's (possibly partial) description of the card to generate.
// Field order matters: the prompt enumerates parameters in this order.
type GenerationConfig struct {
	CardType            CardType `json:"cardType" validate:"required"`
	NumberOfKeyboards   *int     `json:"numberOfKeyboards,omitempty" validate:"omitempty,min=1"`
	NumberOfKeysToPlay  int      `json:"numberOfKeysToPlay" validate:"required,min=2,max=23"`
	NumberOfNotesInCard int      `json:"numberOfNotesInCard,omitempty" validate:"omitempty,min=2,max=12"`
	DifficultyLevel     string   `json:"difficultyLevel,omitempty"`
	MusicalStyle        string   `json:"musicalStyle,omitempty"`
	Mood                string   `json:"mood,omitempty"`
	TimeSignature       string   `json:"timeSignature,omitempty"`
	Tempo               string   `json:"tempo,omitempty"`
	KeySignature        string   `json:"keySignature,omitempty"`
	ScaleType           string   `json:"scaleType,omitempty"`
	ChordType           string   `json:"chordType,omitempty"`
	ChordProgression    string   `json:"chordProgression,omitempty"`
}

// Param is one line of the prompt's parameter list
type Param struct {
	Key   string
	Value string
}

// Keyboards returns the requested chord count, or 0 when unset
func (c *GenerationConfig) Keyboards() int {
	if c.NumberOfKeyboards == nil {
		return 0
	}
	return *c.NumberOfKeyboards
}

// Params lists every configured parameter in declaration order, substituting
// Unspecified for empty values. numberOfKeyboards only appears for chord cards.
func (c *GenerationConfig) Params() []Param {
	params := []Param{{Key: "cardType", Value: orUnspecified(string(c.CardType))}}

	if c.CardType == CardTypeChords {
		params = append(params, Param{Key: "numberOfKeyboards", Value: intOrUnspecified(c.Keyboards())})
	}

	return append(params,
		Param{Key: "numberOfKeysToPlay", Value: intOrUnspecified(c.NumberOfKeysToPlay)},
		Param{Key: "numberOfNotesInCard", Value: intOrUnspecified(c.NumberOfNotesInCard)},
		Param{Key: "difficultyLevel", Value: orUnspecified(c.DifficultyLevel)},
		Param{Key: "musicalStyle", Value: orUnspecified(c.MusicalStyle)},
		Param{Key: "mood", Value: orUnspecified(c.Mood)},
		Param{Key: "timeSignature", Value: orUnspecified(c.TimeSignature)},
		Param{Key: "tempo", Value: orUnspecified(c.Tempo)},
		Param{Key: "keySignature", Value: orUnspecified(c.KeySignature)},
		Param{Key: "scaleType", Value: orUnspecified(c.ScaleType)},
		Param{Key: "chordType", Value: orUnspecified(c.ChordType)},
		Param{Key: "chordProgression", Value: orUnspecified(c.ChordProgression)},
	)
}

func orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unspecified
	}
	return v
}

func intOrUnspecified(v int) string {
	if v == 0 {
		return Unspecified
	}
	return strconv.Itoa(v)
}

// Key is a single note of a Single Keys card
type Key struct {
	Note  string `json:"note"`
	Order int    `json:"order"`
}

// Chord is one chord of a Chords card
type Chord struct {
	Name  string   `json:"name"`
	Notes []string `json:"notes"`
	Order int      `json:"order"`
}

// Metadata keys of the generated record
const (
	FieldCardName    = "Sound Card Name"
	FieldDescription = "Description"
	FieldTip         = "Tip"
	FieldMusicTheory = "Music Theory"
)

// SoundCard is a validated generation result. Record holds every field the
// collaborator returned; the typed fields are views over it.
type SoundCard struct {
	Type        CardType
	Keys        []Key
	Chords      []Chord
	Name        string
	Description string
	Tip         string
	MusicTheory string
	Record      map[string]any
}

// MarshalJSON encodes the card as the record it was built from
func (s *SoundCard) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record)
}
