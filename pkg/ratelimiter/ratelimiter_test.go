package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTakeToken(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	assert.True(t, tb.TakeToken())
	assert.True(t, tb.TakeToken())
	assert.True(t, tb.TakeToken())
	assert.False(t, tb.TakeToken())
	assert.Equal(t, 3, tb.Capacity())
}

func TestNonPositiveValues(t *testing.T) {
	tb := NewTokenBucket(0, -5)
	assert.Equal(t, 1, tb.Capacity())
	assert.True(t, tb.TakeToken())
}

func TestWaitContextCancelled(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	assert.True(t, tb.TakeToken())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, tb.WaitContext(ctx))
}

func TestWaitRefills(t *testing.T) {
	tb := NewTokenBucket(1, 50)
	assert.True(t, tb.TakeToken())

	start := time.Now()
	tb.Wait()
	assert.Less(t, time.Since(start), time.Second)
}

var _ RateLimiter = (*TokenBucket)(nil)
