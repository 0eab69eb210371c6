package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultPollInterval is the centre of the polling window; ticks land uniformly in ±20% of it,
// so 2.5s gives 2s to 3s.
const DefaultPollInterval = 2500 * time.Millisecond

func jitteredInterval(base time.Duration) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0.2,
		Multiplier:          1,
		MaxInterval:         base,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// poll calls fn on a jittered interval until ctx is cancelled. The first call happens after
// one interval, not immediately.
func poll(ctx context.Context, base time.Duration, fn func(context.Context)) {
	ticker := backoff.NewTicker(backoff.WithContext(jitteredInterval(base), ctx))
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			// backoff.Ticker fires once right away.
			if first {
				first = false
				continue
			}
			if ctx.Err() != nil {
				return
			}
			fn(ctx)
		}
	}
}
