// internal/monitor/backoff.go
package monitor

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultBackoffInitial = 1 * time.Second
	DefaultBackoffMax     = 16 * time.Second
)

// Backoff yields reconnect delays that double from the initial interval up to the cap.
// There is no jitter, so the N-th consecutive delay is min(initial*2^(N-1), max).
type Backoff struct {
	policy *backoff.ExponentialBackOff
}

// NewBackoff creates a doubling backoff. Non-positive arguments fall back to the defaults.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = DefaultBackoffInitial
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	if max < initial {
		max = initial
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initial
	policy.MaxInterval = max
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.Reset()

	return &Backoff{policy: policy}
}

// Next returns the delay for the next consecutive failure.
func (b *Backoff) Next() time.Duration {
	return b.policy.NextBackOff()
}

// Reset starts the sequence over from the initial interval.
func (b *Backoff) Reset() {
	b.policy.Reset()
}
