package soundcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
)

// extractStrategy turns reply text into a record or reports why it could not
type extractStrategy struct {
	name  string
	parse func(raw string) (map[string]any, error)
}

// Tried in order; the first success wins
var extractStrategies = []extractStrategy{
	{name: "fenced_json", parse: extractFencedJSON},
	{name: "bare_json", parse: extractBareJSON},
	{name: "embedded_json", parse: extractEmbeddedJSON},
	{name: "key_value", parse: extractKeyValue},
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n?(.*?)```")

var (
	errNoFence        = errors.New("no fenced block")
	errNotObject      = errors.New("text is not a single JSON object")
	errNoObject       = errors.New("no JSON object in text")
	errNoPatternArray = errors.New("no Keys or Chords array")
	errBrokenJSON     = errors.New("text is an incomplete JSON object")
)

// Extract parses a collaborator reply into a record. It never modifies raw
// and on failure returns a *ParseError carrying raw verbatim.
func Extract(raw string) (map[string]any, error) {
	attempts := make([]error, 0, len(extractStrategies))
	for _, s := range extractStrategies {
		record, err := s.parse(raw)
		if err == nil {
			return record, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", s.name, err))
	}
	return nil, &ParseError{Raw: raw, Attempts: attempts}
}

// extractFencedJSON parses the first ``` fenced block holding a JSON object
func extractFencedJSON(raw string) (map[string]any, error) {
	matches := fencePattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, errNoFence
	}
	var lastErr error
	for _, m := range matches {
		record, err := decodeObject(m[1])
		if err == nil {
			return record, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func extractBareJSON(raw string) (map[string]any, error) {
	return decodeObject(raw)
}

// extractEmbeddedJSON handles prose around a single object, e.g. "Here is your card: {...}"
func extractEmbeddedJSON(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, errNoObject
	}
	record, err := decodeObject(raw[start : end+1])
	if err != nil {
		return nil, err
	}
	// a lone array element is not a card
	if _, ok := record[models.FieldKeys]; ok {
		return record, nil
	}
	if _, ok := record[models.FieldChords]; ok {
		return record, nil
	}
	return nil, errNoPatternArray
}

func decodeObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") {
		return nil, errNotObject
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, err
	}
	return record, nil
}

// extractKeyValue reads "Key: value" lines. Keys and Chords values are JSON
// arrays that may wrap over several lines; every other value is kept as a string.
func extractKeyValue(raw string) (map[string]any, error) {
	// the JSON strategies already rejected anything that opens like an object
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return nil, errBrokenJSON
	}

	record := map[string]any{}
	arrays := map[string]*strings.Builder{}
	var order []string
	current := ""

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// continuation of a wrapped array literal
		if current != "" {
			acc := arrays[current]
			if acc.Len() == 0 || bracketDepth(acc.String()) > 0 || !strings.Contains(trimmed, ":") {
				if acc.Len() > 0 {
					acc.WriteString("\n")
				}
				acc.WriteString(trimmed)
				continue
			}
		}

		idx := strings.Index(trimmed, ":")
		if idx == -1 {
			continue
		}
		key := normalizeKey(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])
		current = ""

		if key == models.FieldKeys || key == models.FieldChords {
			b := &strings.Builder{}
			b.WriteString(value)
			if _, seen := arrays[key]; !seen {
				order = append(order, key)
			}
			arrays[key] = b
			current = key
			continue
		}
		if key != "" {
			record[key] = cleanValue(value)
		}
	}

	if len(order) == 0 {
		return nil, errNoPatternArray
	}
	for _, key := range order {
		literal := strings.TrimSuffix(strings.TrimSpace(arrays[key].String()), ",")
		var items []any
		if err := json.Unmarshal([]byte(literal), &items); err != nil {
			return nil, fmt.Errorf("%s is not a JSON array: %w", key, err)
		}
		record[key] = items
	}
	return record, nil
}

// normalizeKey strips list markers and markdown emphasis around a key.
// Quoted keys are left quoted so JSON fragments never match Keys or Chords.
func normalizeKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), " \t*-")
}

func cleanValue(value string) string {
	value = strings.TrimSuffix(value, ",")
	value = strings.Trim(value, "*")
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

// bracketDepth counts unclosed [ and { outside of JSON strings
func bracketDepth(text string) int {
	depth := 0
	inString := false
	escaped := false
	for _, r := range text {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			depth--
		}
	}
	return depth
}
