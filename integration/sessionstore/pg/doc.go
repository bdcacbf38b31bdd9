// Package pg implements session.Store on PostgreSQL.
//
// Values are JSONB rows in routekit_sessions with an expires_at column.
// Reads filter on expiry, so an expired row behaves as absent even before
// Run deletes it. Update holds a transaction-scoped advisory lock on the key
// for the whole read-modify-write.
//
//	if err := pgdb.Migrate(ctx, pool, cfg, pg.Migrations(), log); err != nil {
//		return err
//	}
//	store := pg.New[Cart](pool, session.WithLogger(log))
//	go store.Run(ctx)
package pg
