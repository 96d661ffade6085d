package metrics

import (
	"context"
	"time"
)

// Recorder fans generation metrics out to Sentry and CloudWatch
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder combines both backends. cloudwatch may be nil.
func NewRecorder(cloudwatch *Client) *Recorder {
	return &Recorder{
		sentry:     NewSentryMetrics(),
		cloudwatch: cloudwatch,
	}
}

// RecordGeneration records the outcome of one pipeline run. stage is empty on success.
func (r *Recorder) RecordGeneration(ctx context.Context, duration time.Duration, stage string) {
	if r == nil {
		return
	}
	success := stage == ""
	r.sentry.RecordGenerationDuration(ctx, duration, success)
	if !success {
		r.sentry.RecordGenerationFailure(ctx, stage)
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordGenerationDuration(duration, success)
		if !success {
			r.cloudwatch.RecordGenerationFailure(stage)
		}
	}
}

// RecordTokenUsage records the token usage of one collaborator call
func (r *Recorder) RecordTokenUsage(ctx context.Context, model string, total, input, output int64) {
	if r == nil {
		return
	}
	r.sentry.RecordTokenUsage(ctx, model, total, input, output)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordTokenUsage(model, total, input, output)
	}
}

// RecordAPIRequest records one HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	if r.cloudwatch != nil {
		r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
}
