package soundcard

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/llm"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/cenkalti/backoff/v5"
)

const defaultRetryInterval = 500 * time.Millisecond

// Generator produces one sound card per call
type Generator interface {
	Generate(ctx context.Context, cfg *models.GenerationConfig) (*models.SoundCard, error)
}

// Retrier re-runs a whole Generate call when the failure might not repeat:
// an unusable reply or a transient transport error. Config errors and
// cancellation are returned at once.
type Retrier struct {
	generator  Generator
	attempts   uint
	newBackOff func() backoff.BackOff
}

// NewRetrier wraps generator. attempts below 2 disables retrying.
func NewRetrier(generator Generator, attempts int) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrier{
		generator:  generator,
		attempts:   uint(attempts),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInterval
	return b
}

// WithBackOff replaces the wait policy between attempts
func (r *Retrier) WithBackOff(newBackOff func() backoff.BackOff) *Retrier {
	r.newBackOff = newBackOff
	return r
}

// Generate calls the wrapped generator up to the configured number of attempts
func (r *Retrier) Generate(ctx context.Context, cfg *models.GenerationConfig) (*models.SoundCard, error) {
	attempt := 0
	operation := func() (*models.SoundCard, error) {
		attempt++
		card, err := r.generator.Generate(ctx, cfg)
		if err != nil && !Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return card, err
	}

	card, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(r.attempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("🔁 SOUND CARD ATTEMPT %d/%d FAILED, retrying in %v: %v", attempt, r.attempts, wait, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Retryable reports whether running the pipeline again could succeed
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}
	var transportErr *llm.TransportError
	if errors.As(err, &transportErr) {
		switch transportErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
		return true
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		return false
	}
	switch genErr.Stage {
	case StageInvoke, StageExtract, StageValidate:
		return true
	default:
		return false
	}
}
