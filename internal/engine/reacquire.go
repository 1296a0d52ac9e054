package engine

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReacquireSource retries attempt with exponential backoff until it
// succeeds or ctx is cancelled, mirroring the teacher's own
// retry-the-backend-connection loop (cmd/steelclock's retryCancel channel)
// but generalised to the pack's backoff library instead of a hand-rolled
// ticker: a host's audio device can disappear and reappear (format change,
// device unplug) independently of this module's own state, and §6 treats
// that reconnection as the host's responsibility, not a DSP-core concern --
// this helper is what a host wires that responsibility through.
func ReacquireSource(ctx context.Context, attempt func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = 0 // never give up on elapsed time; only ctx ends the retries
	policy := backoff.WithContext(expo, ctx)

	return backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		log.Printf("spectrumdsp engine: audio source unavailable, retrying in %s: %v", wait, err)
	})
}
