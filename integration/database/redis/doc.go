// Package redis connects to Redis with retries and exposes a health probe.
//
//	cfg := config.MustLoad[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Connect accepts redis:// and rediss:// URLs, pings until the server
// answers and doubles the wait between attempts. Failures wrap
// ErrRedisNotReady; a malformed URL wraps ErrFailedToParseRedisConnString.
package redis
