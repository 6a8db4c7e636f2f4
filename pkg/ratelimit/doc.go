// Package ratelimit throttles generation calls per caller with token
// buckets. Each key (a user id, or the remote address of anonymous callers)
// owns a bucket that holds up to Burst tokens and refills at Rate tokens per
// second. Idle buckets are evicted so the key space stays bounded.
//
//	l := ratelimit.New(ratelimit.Config{Rate: 1, Burst: 10, IdleTTL: 10 * time.Minute})
//	if ok, wait := l.Allow("alice"); !ok {
//		// retry after wait
//	}
package ratelimit
