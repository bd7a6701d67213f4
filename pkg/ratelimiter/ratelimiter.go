package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

type RateLimiter interface {
	TakeToken() bool
	Wait()
	WaitContext(ctx context.Context) error
}

// TokenBucket holds up to capacity tokens and refills refillRate tokens
// per second.
type TokenBucket struct {
	limiter *rate.Limiter
}

func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = 1
	}

	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(refillRate), int(capacity)),
	}
}

// TakeToken consumes a token if one is available, without blocking.
func (tb *TokenBucket) TakeToken() bool {
	return tb.limiter.Allow()
}

func (tb *TokenBucket) Wait() {
	_ = tb.limiter.Wait(context.Background())
}

// WaitContext blocks until a token is available or ctx is done.
func (tb *TokenBucket) WaitContext(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Capacity is the bucket size.
func (tb *TokenBucket) Capacity() int {
	return tb.limiter.Burst()
}
