// Package redis opens go-redis clients from environment config and provides
// a Redis-backed store for OAuth session params.
//
// The store is an alternative to the cookie store for deployments that do
// not want state and nonce in the browser: the client keeps a signed random
// session id and the params live under
// "<prefix>session:<id>:<provider>" until the callback consumes them with
// GETDEL or the TTL expires.
//
//	client, err := redis.Open(ctx, cfg.Redis, log)
//	if err != nil {
//		return err
//	}
//	store, err := redis.NewSessionStore(client, cookies, cfg.Redis.KeyPrefix, 10*time.Minute)
package redis
