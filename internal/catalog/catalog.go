package catalog

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
)

// Catalog holds the allowed values for each enumerated generation parameter.
// A Catalog is read-only once built; accessors return copies.
type Catalog struct {
	lists map[string][]string
}

// Option describes one catalog list as it appears in the prompt
type Option struct {
	Param  string   // GenerationConfig JSON key
	Label  string   // human-readable list name
	Values []string // allowed values, in catalog order
}

// optionOrder fixes the order the prompt lists the catalogs in
var optionOrder = []struct{ param, label string }{
	{"difficultyLevel", "Difficulty Levels"},
	{"mood", "Moods"},
	{"musicalStyle", "Musical Styles"},
	{"scaleType", "Scale Types"},
	{"chordType", "Chord Types"},
	{"chordProgression", "Chord Progressions"},
	{"timeSignature", "Time Signatures"},
	{"keySignature", "Key Signatures"},
	{"tempo", "Tempos"},
}

// Parse builds a Catalog from its JSON form: an object of parameter name to value list.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse option catalog: %w", err)
	}
	return New(raw)
}

// New builds a Catalog from in-memory lists. Every known parameter must have a non-empty list.
func New(lists map[string][]string) (*Catalog, error) {
	c := &Catalog{lists: make(map[string][]string, len(optionOrder))}
	for _, o := range optionOrder {
		values := lists[o.param]
		if len(values) == 0 {
			return nil, fmt.Errorf("option catalog has no values for %q", o.param)
		}
		c.lists[o.param] = slices.Clone(values)
	}
	return c, nil
}

// Options returns every catalog list in prompt order
func (c *Catalog) Options() []Option {
	out := make([]Option, 0, len(optionOrder))
	for _, o := range optionOrder {
		out = append(out, Option{Param: o.param, Label: o.label, Values: slices.Clone(c.lists[o.param])})
	}
	return out
}

// Values returns the allowed values for a parameter, or nil if it has no catalog
func (c *Catalog) Values(param string) []string {
	return slices.Clone(c.lists[param])
}

// Contains reports whether value is allowed for param (case-insensitive)
func (c *Catalog) Contains(param, value string) bool {
	for _, v := range c.lists[param] {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Check verifies every caller-supplied enumerated value of cfg against the catalog.
// Empty values are left for the generator to choose and always pass.
func (c *Catalog) Check(cfg *models.GenerationConfig) error {
	supplied := map[string]string{
		"difficultyLevel":  cfg.DifficultyLevel,
		"mood":             cfg.Mood,
		"musicalStyle":     cfg.MusicalStyle,
		"scaleType":        cfg.ScaleType,
		"chordType":        cfg.ChordType,
		"chordProgression": cfg.ChordProgression,
		"timeSignature":    cfg.TimeSignature,
		"keySignature":     cfg.KeySignature,
		"tempo":            cfg.Tempo,
	}

	var invalid []string
	for _, o := range optionOrder {
		value := strings.TrimSpace(supplied[o.param])
		if value == "" {
			continue
		}
		if !c.Contains(o.param, value) {
			invalid = append(invalid, fmt.Sprintf("%s %q", o.param, value))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("values not in option catalog: %s", strings.Join(invalid, ", "))
	}
	return nil
}
