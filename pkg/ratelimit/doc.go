// Package ratelimit provides per-actor sliding-window admission control for
// sensitive membership operations. Each operation class carries its own
// policy (maximum requests per window) and counters are keyed by
// (actor, class), so a burst of bulk adds does not consume the budget for
// single role updates.
//
// The limiter never queues or delays: a request over budget is rejected
// immediately and the caller surfaces a rate-limited error. Retry timing is
// available through Result.RetryAfter.
//
// Two storage backends are provided. MemoryStore keeps timestamp windows in
// process and suits single-instance deployments and tests. RedisStore keeps
// windows in Redis sorted sets so that multiple engine instances share one
// budget per actor.
//
// # Usage
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//
//	limiter := ratelimit.NewLimiter(store, ratelimit.DefaultPolicies())
//	res, err := limiter.Allow(ctx, actorID, ratelimit.ClassBulkAdd)
//	if err != nil {
//	    // store failure, treat as unavailable
//	}
//	if !res.Allowed {
//	    // reject with a rate limited error, res.RetryAfter() hints the wait
//	}
package ratelimit
