package notify

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle wraps a Notifier with a token-bucket rate limit. The Telegram Bot
// API allows roughly one message per second per chat; the pipeline's
// fire-and-forget goroutines would trip that under bursts of questions.
type Throttle struct {
	inner   Notifier
	limiter *rate.Limiter
}

// NewThrottle wraps inner, allowing perSecond sends with the given burst.
// Non-positive values fall back to one send per second, burst one.
func NewThrottle(inner Notifier, perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Send waits for a send slot, bounded by ctx, then delegates. A context that
// expires before a slot frees returns an error without calling the sink.
func (t *Throttle) Send(ctx context.Context, channel, message string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for send slot: %w", err)
	}
	return t.inner.Send(ctx, channel, message)
}

var _ Notifier = (*Throttle)(nil)
