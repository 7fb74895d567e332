package httpclient

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffStrategy selects the shape of the delay curve between attempts.
type BackoffStrategy int

const (
	BackoffExponential BackoffStrategy = iota
	BackoffFixed
)

// RetryPolicy configures how Client.Do retries a request after a
// transport error or a response whose status is in RetryStatuses.
type RetryPolicy struct {
	MaxAttempts     int
	BackoffStrategy BackoffStrategy
	BaseDelay       time.Duration
	MaxDelay        time.Duration

	// RetryStatuses lists HTTP status codes that should be retried, e.g.
	// 500, 502, 503, 504. Defaults to that set when nil.
	RetryStatuses []int
}

// DefaultRetryPolicy mirrors common REST-client defaults: 3 attempts,
// exponential backoff from 500ms up to 10s, retrying server errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		BackoffStrategy: BackoffExponential,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		RetryStatuses:   []int{500, 502, 503, 504},
	}
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return 3
}

// IsRetryStatus reports whether status should trigger a retry.
func (p RetryPolicy) IsRetryStatus(status int) bool {
	statuses := p.RetryStatuses
	if statuses == nil {
		statuses = DefaultRetryPolicy().RetryStatuses
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// newBackOff builds a cenkalti/backoff BackOff bounded to MaxAttempts
// attempts total (the initial try plus MaxAttempts-1 retries).
func (p RetryPolicy) newBackOff() backoff.BackOff {
	var b backoff.BackOff
	switch p.BackoffStrategy {
	case BackoffFixed:
		delay := p.BaseDelay
		if delay <= 0 {
			delay = 500 * time.Millisecond
		}
		b = backoff.NewConstantBackOff(delay)
	default:
		eb := backoff.NewExponentialBackOff()
		if p.BaseDelay > 0 {
			eb.InitialInterval = p.BaseDelay
		}
		if p.MaxDelay > 0 {
			eb.MaxInterval = p.MaxDelay
		}
		eb.MaxElapsedTime = 0
		b = eb
	}
	return backoff.WithMaxRetries(b, uint64(p.maxAttempts()-1))
}
