package calendar

import (
	"context"
	"math"
	"time"
)

// RetryPolicy defines exponential backoff parameters for calendar calls.
// Retries happen inline within the request: there is no background queue,
// so the budget stays small.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy keeps the worst case under a couple of seconds.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    3,
	InitialDelay:  200 * time.Millisecond,
	MaxDelay:      time.Second,
	BackoffFactor: 2,
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// retry runs fn up to MaxRetries+1 times, honoring context cancellation
// between attempts.
func (r RetryPolicy) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= r.MaxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.NextDelay(attempt + 1)):
		}
	}
}
