package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"kelasku/backend/internal/domain"
)

// ErrSuggestionsExhausted is returned once every retry of a transient
// failure has failed. It wraps the last failure.
var ErrSuggestionsExhausted = errors.New("suggestions unavailable after retries")

const (
	DefaultRetryInterval = time.Second
	DefaultMaxRetries    = 3
)

// SuggestFunc is one suggestion attempt.
type SuggestFunc func(ctx context.Context) (domain.SuggestionResult, error)

// Retrier retries ErrServiceUnavailable with exponential backoff: waits of
// 1s, 2s and 4s, then gives up. Other errors are returned immediately.
type Retrier struct {
	initial    time.Duration
	maxRetries uint64
	newTimer   func() backoff.Timer
	logger     zerolog.Logger
}

func NewRetrier(logger zerolog.Logger) *Retrier {
	return &Retrier{
		initial:    DefaultRetryInterval,
		maxRetries: DefaultMaxRetries,
		logger:     logger,
	}
}

func (r *Retrier) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.initial
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = r.initial << r.maxRetries
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, r.maxRetries), ctx)
}

// Do runs fn until it succeeds, fails permanently or the retries run out. It
// returns the number of attempts made.
func (r *Retrier) Do(ctx context.Context, fn SuggestFunc) (domain.SuggestionResult, int, error) {
	attempts := 0
	operation := func() (domain.SuggestionResult, error) {
		attempts++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrServiceUnavailable) {
			return result, err
		}
		return result, backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Dur("retry_in", wait).
			Msg("suggestion attempt failed, retrying")
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}

	result, err := backoff.RetryNotifyWithTimerAndData(operation, r.backOff(ctx), notify, timer)
	if err != nil {
		if errors.Is(err, ErrServiceUnavailable) {
			return domain.SuggestionResult{}, attempts, fmt.Errorf("%w: %w", ErrSuggestionsExhausted, err)
		}
		return domain.SuggestionResult{}, attempts, err
	}
	return result, attempts, nil
}

// WithInitialInterval scales the schedule; waits stay d, 2d, 4d.
func (r *Retrier) WithInitialInterval(d time.Duration) *Retrier {
	if d > 0 {
		r.initial = d
	}
	return r
}
