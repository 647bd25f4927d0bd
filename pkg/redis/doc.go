// Package redis connects the engine to a Redis server with retry and
// exposes a readiness probe.
//
// It exists so deployments that back the rate limiter with Redis share the
// same connection lifecycle as the Postgres and MongoDB helpers:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store, err := ratelimit.NewRedisStore(client)
//	if err != nil {
//	    return err
//	}
//	limiter, err := ratelimit.NewLimiter(store, ratelimit.DefaultPolicies())
//
// Config fields are populated from environment variables via
// github.com/caarlos0/env.
package redis
