package ratelimit

import (
	"math"
	"time"
)

// bucket is a token bucket. Tokens are fractional so slow refill rates
// accumulate between calls. It is not safe for concurrent use; Limiter
// serializes access.
type bucket struct {
	capacity float64
	tokens   float64
	rate     float64
	last     time.Time
}

func newBucket(capacity, rate float64, now time.Time) *bucket {
	return &bucket{capacity: capacity, tokens: capacity, rate: rate, last: now}
}

// take consumes one token at now. When the bucket is empty it returns false
// and the time until a token becomes available.
func (b *bucket) take(now time.Time) (bool, time.Duration) {
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	if b.rate <= 0 {
		return false, time.Duration(math.MaxInt64)
	}
	wait := time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	return false, wait
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.rate)
	b.last = now
}

// full reports whether the bucket has refilled completely at now.
func (b *bucket) full(now time.Time) bool {
	b.refill(now)
	return b.tokens >= b.capacity
}
