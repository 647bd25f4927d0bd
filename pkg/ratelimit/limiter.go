package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// SlidingWindow is a Limiter that tracks individual request timestamps per
// (actor, class) key inside a moving window. Accuracy over memory: unlike a
// fixed-window counter it never admits a double burst across a window edge.
type SlidingWindow struct {
	store    Store
	policies map[Class]Policy
	now      func() time.Time
}

// Option configures the limiter.
type Option func(*SlidingWindow)

// WithClock overrides the time source, letting tests drive the window
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(sw *SlidingWindow) {
		if now != nil {
			sw.now = now
		}
	}
}

// NewLimiter creates a sliding-window limiter with the given per-class
// policies.
func NewLimiter(store Store, policies map[Class]Policy, opts ...Option) (*SlidingWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	for class, p := range policies {
		if p.Limit <= 0 || p.Window <= 0 {
			return nil, fmt.Errorf("%w: class %q", ErrInvalidPolicy, class)
		}
	}

	sw := &SlidingWindow{
		store:    store,
		policies: policies,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(sw)
	}
	return sw, nil
}

// Allow records one request for (actorID, class) if the budget permits it.
func (sw *SlidingWindow) Allow(ctx context.Context, actorID string, class Class) (*Result, error) {
	if actorID == "" {
		return nil, ErrKeyRequired
	}
	policy, ok := sw.policies[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}

	now := sw.now()
	allowed, count, err := sw.store.RecordIfAllowed(ctx, key(actorID, class), now, policy.Window, policy.Limit)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     policy.Limit,
		Remaining: max(0, policy.Limit-int(count)),
		ResetAt:   now.Add(policy.Window),
	}, nil
}

// Reset clears the budget for (actorID, class).
func (sw *SlidingWindow) Reset(ctx context.Context, actorID string, class Class) error {
	if actorID == "" {
		return ErrKeyRequired
	}
	return sw.store.Reset(ctx, key(actorID, class))
}

func key(actorID string, class Class) string {
	return actorID + ":" + string(class)
}
