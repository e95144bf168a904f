package service

import (
	"context"
	"time"

	"cadence/src-server/recurring"

	"github.com/google/uuid"
)

// Observer is told about finished detection runs and accepted candidates.
type Observer interface {
	DetectionFinished(ctx context.Context, ownerID string, candidates int, elapsed time.Duration, err error)
	SeriesAccepted(ctx context.Context, seriesID string)
}

type nopObserver struct{}

func (nopObserver) DetectionFinished(context.Context, string, int, time.Duration, error) {}
func (nopObserver) SeriesAccepted(context.Context, string)                               {}

type Option func(*Recurring)

func WithSimilarityThreshold(threshold float64) Option {
	return func(r *Recurring) { r.threshold = threshold }
}

// WithWindow sets how far before and after today detection looks.
func WithWindow(lookback, lookahead time.Duration) Option {
	return func(r *Recurring) {
		r.lookback = lookback
		r.lookahead = lookahead
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Recurring) { r.location = loc }
}

func WithClock(now func() time.Time) Option {
	return func(r *Recurring) { r.now = now }
}

func WithObserver(observer Observer) Option {
	return func(r *Recurring) { r.observer = observer }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Recurring) { r.newID = newID }
}

func defaults() *Recurring {
	return &Recurring{
		threshold: recurring.DefaultSimilarityThreshold,
		lookback:  60 * 24 * time.Hour,
		lookahead: 180 * 24 * time.Hour,
		location:  time.Local,
		now:       time.Now,
		observer:  nopObserver{},
		newID:     uuid.NewString,
	}
}

type triggerCtxKeyType string

const triggerCtxKey triggerCtxKeyType = "detection-trigger"

// WithTrigger labels the detection runs made with ctx, e.g. "http" or "cron".
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerCtxKey, trigger)
}

func TriggerFromContext(ctx context.Context) string {
	if trigger, ok := ctx.Value(triggerCtxKey).(string); ok && trigger != "" {
		return trigger
	}
	return "unknown"
}
