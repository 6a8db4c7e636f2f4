package ratelimit

import (
	"sync"
	"time"
)

// Config configures a Limiter.
type Config struct {
	// Rate is the sustained number of calls per second per key.
	Rate float64

	// Burst is the bucket capacity. Values below 1 are treated as 1.
	Burst int

	// IdleTTL is how long an untouched bucket is kept. Zero keeps buckets
	// until they refill completely.
	IdleTTL time.Duration
}

// PerMinute converts a calls-per-minute setting into a Config.
func PerMinute(n, burst int, idle time.Duration) Config {
	return Config{Rate: float64(n) / 60, Burst: burst, IdleTTL: idle}
}

type entry struct {
	bucket *bucket
	seen   time.Time
}

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*entry
	lastSweep time.Time
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*entry),
	}
}

// Allow consumes one token for key. When the key is throttled it returns
// false and how long the caller should wait before retrying.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{bucket: newBucket(float64(l.cfg.Burst), l.cfg.Rate, now)}
		l.buckets[key] = e
	}
	e.seen = now
	return e.bucket.take(now)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweepLocked evicts idle buckets at most once per idle period. A bucket is
// idle once IdleTTL has passed since its last use and it has refilled, so
// eviction never hands a throttled caller a fresh burst.
func (l *Limiter) sweepLocked(now time.Time) {
	interval := l.cfg.IdleTTL
	if interval <= 0 {
		interval = time.Minute
	}
	if now.Sub(l.lastSweep) < interval {
		return
	}
	l.lastSweep = now
	for key, e := range l.buckets {
		if now.Sub(e.seen) >= l.cfg.IdleTTL && e.bucket.full(now) {
			delete(l.buckets, key)
		}
	}
}
