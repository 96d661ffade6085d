package soundcard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider replays canned replies, one per call; the last reply repeats
type MockProvider struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []*llm.GenerationRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.requests)
	m.requests = append(m.requests, request)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if len(m.replies) == 0 {
		return nil, llm.ErrEmptyReply
	}
	reply := m.replies[len(m.replies)-1]
	if i < len(m.replies) {
		reply = m.replies[i]
	}
	return &llm.GenerationResponse{
		RawOutput: reply,
		Model:     request.Model,
		Usage:     llm.Usage{InputTokens: 900, OutputTokens: 120, TotalTokens: 1020},
	}, nil
}

func (m *MockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func newTestAgent(t *testing.T, provider llm.Provider) *SoundCardAgent {
	t.Helper()
	agent, err := NewSoundCardAgent(&config.Config{LLMModel: "gpt-4o-mini", GenerationTimeout: 5 * time.Second}, provider)
	require.NoError(t, err)
	return agent
}

const twoChordReply = "```json\n" + `{
  "Chords": [
    {"name": "C Major", "notes": ["C4", "E4", "G4"], "order": 1},
    {"name": "A Minor", "notes": ["A3", "C4", "E4"], "order": 2}
  ],
  "Card Type": "Chords",
  "Number of Keyboards": 2,
  "Sound Card Name": "Sunset Pair",
  "Description": "Two chords sharing C and E.",
  "Tip": "Move only the fingers that must move.",
  "Music Theory": "A minor is the relative minor of C major."
}` + "\n```"

const oneChordReply = "```json\n" + `{
  "Chords": [
    {"name": "C Major", "notes": ["C4", "E4", "G4"], "order": 1}
  ],
  "Sound Card Name": "Lonely Chord"
}` + "\n```"

func endToEndConfig() *models.GenerationConfig {
	return &models.GenerationConfig{
		CardType:            models.CardTypeChords,
		NumberOfKeyboards:   intPtr(2),
		NumberOfKeysToPlay:  5,
		NumberOfNotesInCard: 3,
	}
}

func TestGenerateChordsEndToEnd(t *testing.T) {
	provider := &MockProvider{replies: []string{twoChordReply}}
	agent := newTestAgent(t, provider)

	card, err := agent.Generate(context.Background(), endToEndConfig())
	require.NoError(t, err)

	assert.Equal(t, models.CardTypeChords, card.Type)
	require.Len(t, card.Chords, 2)
	assert.Equal(t, []string{"A3", "C4", "E4"}, card.Chords[1].Notes)
	assert.Equal(t, 2, card.Chords[1].Order)
	assert.Equal(t, "Sunset Pair", card.Name)
	assert.Equal(t, "A minor is the relative minor of C major.", card.MusicTheory)
	assert.Len(t, card.Record["Chords"], 2)

	require.Equal(t, 1, provider.calls())
	sent := provider.requests[0]
	assert.Equal(t, "gpt-4o-mini", sent.Model)
	assert.Contains(t, sent.Prompt, "exactly 2 chords")
	assert.Contains(t, sent.Prompt, "- numberOfKeyboards: 2")
}

func TestGenerateRejectsWrongChordCount(t *testing.T) {
	agent := newTestAgent(t, &MockProvider{replies: []string{oneChordReply}})

	_, err := agent.Generate(context.Background(), endToEndConfig())
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, StageValidate, genErr.Stage)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, validationErr.Reason, "Expected 2 chords, but got 1")
}

func TestGenerateSingleKeysFromLineReply(t *testing.T) {
	reply := "Keys: [{\"note\": \"C4\", \"order\": 1}, {\"note\": \"G4\", \"order\": 2}, {\"note\": \"E4\", \"order\": 3}]\n" +
		"Sound Card Name: Broken Triad\n" +
		"Tip: Keep the wrist level"
	agent := newTestAgent(t, &MockProvider{replies: []string{reply}})

	card, err := agent.Generate(context.Background(), &models.GenerationConfig{CardType: "single_keys", NumberOfKeysToPlay: 4})
	require.NoError(t, err)

	assert.Equal(t, models.CardTypeSingleKeys, card.Type)
	require.Len(t, card.Keys, 3)
	assert.Equal(t, models.Key{Note: "G4", Order: 2}, card.Keys[1])
	assert.Equal(t, "Broken Triad", card.Name)
}

func TestGenerateStages(t *testing.T) {
	transportErr := &llm.TransportError{Provider: "mock", StatusCode: 503, Err: errors.New("unavailable")}

	tests := []struct {
		name      string
		cfg       *models.GenerationConfig
		provider  *MockProvider
		stage     Stage
		wantCalls int
		target    any
	}{
		{
			name:     "keys to play out of range",
			cfg:      &models.GenerationConfig{CardType: models.CardTypeSingleKeys, NumberOfKeysToPlay: 30},
			provider: &MockProvider{replies: []string{twoChordReply}},
			stage:    StageConfig,
			target:   new(*InvalidConfigError),
		},
		{
			name:     "chords without keyboards",
			cfg:      &models.GenerationConfig{CardType: models.CardTypeChords, NumberOfKeysToPlay: 4},
			provider: &MockProvider{replies: []string{twoChordReply}},
			stage:    StageConfig,
			target:   new(*InvalidConfigError),
		},
		{
			name:     "mood outside catalog",
			cfg:      &models.GenerationConfig{CardType: models.CardTypeSingleKeys, NumberOfKeysToPlay: 4, Mood: "Sleepy-ish"},
			provider: &MockProvider{replies: []string{twoChordReply}},
			stage:    StageConfig,
			target:   new(*InvalidConfigError),
		},
		{
			name:      "transport failure",
			cfg:       endToEndConfig(),
			provider:  &MockProvider{errs: []error{transportErr}},
			stage:     StageInvoke,
			wantCalls: 1,
			target:    new(*llm.TransportError),
		},
		{
			name:      "unparseable reply",
			cfg:       endToEndConfig(),
			provider:  &MockProvider{replies: []string{"I cannot write music today."}},
			stage:     StageExtract,
			wantCalls: 1,
			target:    new(*ParseError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := newTestAgent(t, tt.provider)

			card, err := agent.Generate(context.Background(), tt.cfg)
			assert.Nil(t, card)

			var genErr *GenerationError
			require.True(t, errors.As(err, &genErr))
			assert.Equal(t, tt.stage, genErr.Stage)
			assert.True(t, errors.As(err, tt.target))
			assert.Equal(t, tt.wantCalls, tt.provider.calls())
		})
	}
}

func TestGenerateEmptyReply(t *testing.T) {
	agent := newTestAgent(t, &MockProvider{})

	_, err := agent.Generate(context.Background(), endToEndConfig())
	assert.ErrorIs(t, err, llm.ErrEmptyReply)
}

func TestGenerateParseErrorKeepsReply(t *testing.T) {
	reply := `{"Chords": [{"name": "C Major"`
	agent := newTestAgent(t, &MockProvider{replies: []string{reply}})

	_, err := agent.Generate(context.Background(), endToEndConfig())

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, reply, parseErr.Raw)
}

func TestCheckConfigListsEveryProblem(t *testing.T) {
	agent := newTestAgent(t, &MockProvider{})

	err := agent.CheckConfig(&models.GenerationConfig{
		CardType:           models.CardTypeChords,
		NumberOfKeysToPlay: 12,
		Tempo:              "Ludicrous",
	})

	var cfgErr *InvalidConfigError
	require.True(t, errors.As(err, &cfgErr))
	joined := strings.Join(cfgErr.Problems, "\n")
	assert.Contains(t, joined, "numberOfKeyboards is required")
	assert.Contains(t, joined, "numberOfKeysToPlay must be at most 10")
	assert.Contains(t, joined, `tempo "Ludicrous"`)
}

func TestCheckConfigUsesJSONFieldNames(t *testing.T) {
	agent := newTestAgent(t, &MockProvider{})

	err := agent.CheckConfig(&models.GenerationConfig{CardType: models.CardTypeSingleKeys, NumberOfKeysToPlay: 1})

	var cfgErr *InvalidConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"numberOfKeysToPlay must be at least 2"}, cfgErr.Problems)
}

func TestCheckConfigRejectsKeyboardsOnSingleKeys(t *testing.T) {
	provider := &MockProvider{replies: []string{"Keys: []"}}
	agent := newTestAgent(t, provider)

	_, err := agent.Generate(context.Background(), &models.GenerationConfig{
		CardType:           models.CardTypeSingleKeys,
		NumberOfKeyboards:  intPtr(3),
		NumberOfKeysToPlay: 4,
	})

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, StageConfig, genErr.Stage)
	assert.Contains(t, err.Error(), "numberOfKeyboards is only valid for Chords cards")
	assert.Empty(t, provider.requests)
}

func TestGenerateDoesNotModifyCallerConfig(t *testing.T) {
	agent := newTestAgent(t, &MockProvider{replies: []string{"Keys: []"}})
	cfg := &models.GenerationConfig{CardType: "SingleKeys", NumberOfKeysToPlay: 3}

	_, err := agent.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, models.CardType("SingleKeys"), cfg.CardType)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	provider := &MockProvider{replies: []string{twoChordReply}}
	agent := newTestAgent(t, provider)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Generate(ctx, endToEndConfig())

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, StageInvoke, genErr.Stage)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSoundCardAgentNeedsProvider(t *testing.T) {
	_, err := NewSoundCardAgent(&config.Config{}, nil)
	assert.Error(t, err)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	reply := strings.Repeat("♫", 10)
	got := truncate(reply, 7)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "♫♫...", got)
	assert.Equal(t, reply, truncate(reply, len(reply)))
}
