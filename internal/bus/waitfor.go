package bus

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by WaitFor when no matching event arrives
// within the timeout.
var ErrWaitTimeout = errors.New("bus: timed out waiting for event")

// WaitFor blocks until the next event of eventType is emitted, the timeout
// elapses, or ctx is canceled. It returns the event payload on success. A
// timeout of zero or less waits until ctx is done.
//
// WaitFor layers a synchronous request/response pattern over the bus; the
// caller must not hold locks that an emitter of eventType also needs.
func (b *Bus) WaitFor(ctx context.Context, eventType string, timeout time.Duration) (any, error) {
	ch := make(chan any, 1)
	sub := b.SubscribeOnce(eventType, func(payload any) {
		ch <- payload
	})

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutCh = t.C
	}

	select {
	case payload := <-ch:
		return payload, nil
	case <-timeoutCh:
		b.Unsubscribe(sub)
		b.log.Warn().Str("event", eventType).Dur("timeout", timeout).Msg("wait for event timed out")
		return nil, ErrWaitTimeout
	case <-ctx.Done():
		b.Unsubscribe(sub)
		return nil, ctx.Err()
	}
}
