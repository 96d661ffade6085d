package soundcard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestRetrierRetriesUnusableReplies(t *testing.T) {
	provider := &MockProvider{replies: []string{"not a card", oneChordReply, twoChordReply}}
	retrier := NewRetrier(newTestAgent(t, provider), 3).WithBackOff(noWait)

	card, err := retrier.Generate(context.Background(), endToEndConfig())
	require.NoError(t, err)
	assert.Len(t, card.Chords, 2)
	assert.Equal(t, 3, provider.calls())
}

func TestRetrierGivesUpAfterAttempts(t *testing.T) {
	provider := &MockProvider{replies: []string{oneChordReply}}
	retrier := NewRetrier(newTestAgent(t, provider), 2).WithBackOff(noWait)

	_, err := retrier.Generate(context.Background(), endToEndConfig())

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, StageValidate, genErr.Stage)
	assert.Equal(t, 2, provider.calls())
}

func TestRetrierDoesNotRetryConfigErrors(t *testing.T) {
	provider := &MockProvider{replies: []string{twoChordReply}}
	retrier := NewRetrier(newTestAgent(t, provider), 5).WithBackOff(noWait)

	cfg := endToEndConfig()
	cfg.NumberOfKeyboards = nil

	_, err := retrier.Generate(context.Background(), cfg)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, StageConfig, genErr.Stage)
	assert.Equal(t, 0, provider.calls())
}

func TestRetrierSingleAttemptIsPassThrough(t *testing.T) {
	provider := &MockProvider{replies: []string{oneChordReply, twoChordReply}}
	retrier := NewRetrier(newTestAgent(t, provider), 0)

	_, err := retrier.Generate(context.Background(), endToEndConfig())
	assert.Error(t, err)
	assert.Equal(t, 1, provider.calls())
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"extract", &GenerationError{Stage: StageExtract, Err: &ParseError{}}, true},
		{"validate", &GenerationError{Stage: StageValidate, Err: &ValidationError{Reason: "x"}}, true},
		{"empty reply", &GenerationError{Stage: StageInvoke, Err: llm.ErrEmptyReply}, true},
		{"server error", &GenerationError{Stage: StageInvoke, Err: &llm.TransportError{StatusCode: 503, Err: errors.New("down")}}, true},
		{"rate limited", &GenerationError{Stage: StageInvoke, Err: &llm.TransportError{StatusCode: 429, Err: errors.New("slow down")}}, true},
		{"bad credentials", &GenerationError{Stage: StageInvoke, Err: &llm.TransportError{StatusCode: 401, Err: errors.New("nope")}}, false},
		{"missing credential", &GenerationError{Stage: StageInvoke, Err: &config.ConfigurationError{Setting: "OPENAI_API_KEY"}}, false},
		{"cancelled", &GenerationError{Stage: StageInvoke, Err: fmt.Errorf("call: %w", context.Canceled)}, false},
		{"timed out", &GenerationError{Stage: StageInvoke, Err: context.DeadlineExceeded}, false},
		{"config", &GenerationError{Stage: StageConfig, Err: &InvalidConfigError{}}, false},
		{"prompt", &GenerationError{Stage: StagePrompt, Err: errors.New("bad card type")}, false},
		{"unknown", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
