// Package session provides the key/value store with expiry that request
// handlers use for session data.
//
// Store is the collaborator interface; MemoryStore is the in-process
// implementation and persistent backends live under integration/sessionstore.
//
//	store := session.NewMemoryStore[string](session.WithSweepInterval(time.Minute))
//	go store.Start(ctx)
//	defer store.Stop()
//
//	_ = store.Add(ctx, "id", "user123", time.Hour)
//	v, _ := store.Get(ctx, "id", "none") // "user123"
//
// Reads and writes of one key are serialized. Update performs an atomic
// read-modify-write under that key's lock:
//
//	visits, err := counters.Update(ctx, sid, 0, func(n int, _ bool) (int, error) {
//		return n + 1, nil
//	})
//
// Expired entries are treated as absent on read and purged by the background
// sweep; both paths agree on the same expiry instant.
package session
