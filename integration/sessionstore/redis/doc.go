// Package redis implements session.Store on Redis.
//
// Entries are JSON values under a key prefix with native TTLs, so expired
// entries disappear without a sweeper. Update uses optimistic WATCH/MULTI
// transactions and retries on conflict, which serializes read-modify-write
// cycles on one key across every process sharing the server.
//
//	client, err := redisdb.Connect(ctx, redisCfg)
//	if err != nil {
//		return err
//	}
//	store := redis.New[Cart](client, redis.Config{}, session.WithDefaultTTL(time.Hour))
package redis
