package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/session"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreAddGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("value until expiry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](session.WithClock(clock.Now))

		require.NoError(t, store.Add(ctx, "id", "user123", 3600*time.Second))
		v, err := store.Get(ctx, "id", "none")
		require.NoError(t, err)
		assert.Equal(t, "user123", v)

		clock.Advance(3599 * time.Second)
		v, _ = store.Get(ctx, "id", "none")
		assert.Equal(t, "user123", v)

		clock.Advance(time.Second)
		v, _ = store.Get(ctx, "id", "none")
		assert.Equal(t, "none", v)
		assert.Equal(t, int64(1), store.Stats().Expired)
		assert.Zero(t, store.Stats().Active)
	})

	t.Run("missing key returns default", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[int]()
		v, err := store.Get(ctx, "nope", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("non-positive ttl uses default ttl", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](session.WithClock(clock.Now), session.WithDefaultTTL(time.Minute))

		require.NoError(t, store.Add(ctx, "k", "v", 0))
		clock.Advance(59 * time.Second)
		v, _ := store.Get(ctx, "k", "")
		assert.Equal(t, "v", v)

		clock.Advance(time.Second)
		v, _ = store.Get(ctx, "k", "")
		assert.Empty(t, v)
	})

	t.Run("add replaces value and expiry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](session.WithClock(clock.Now))

		require.NoError(t, store.Add(ctx, "k", "old", time.Second))
		require.NoError(t, store.Add(ctx, "k", "new", time.Hour))
		clock.Advance(time.Minute)

		v, _ := store.Get(ctx, "k", "")
		assert.Equal(t, "new", v)
	})

	t.Run("empty key", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[string]()
		assert.ErrorIs(t, store.Add(ctx, "", "v", time.Hour), session.ErrEmptyKey)
		_, err := store.Get(ctx, "", "")
		assert.ErrorIs(t, err, session.ErrEmptyKey)
	})
}

func TestMemoryStoreUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates and increments", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[int]()
		inc := func(n int, _ bool) (int, error) { return n + 1, nil }

		v, err := store.Update(ctx, "visits", time.Hour, inc)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		v, err = store.Update(ctx, "visits", 0, inc)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("failed update leaves entry unchanged", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[string]()
		require.NoError(t, store.Add(ctx, "k", "keep", time.Hour))

		boom := errors.New("boom")
		_, err := store.Update(ctx, "k", time.Hour, func(string, bool) (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)

		v, _ := store.Get(ctx, "k", "")
		assert.Equal(t, "keep", v)

		_, err = store.Update(ctx, "fresh", time.Hour, func(string, bool) (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, store.Stats().Active)
	})

	t.Run("expired value is reported absent", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](session.WithClock(clock.Now))
		require.NoError(t, store.Add(ctx, "k", "stale", time.Second))
		clock.Advance(time.Second)

		var gotOK bool
		var gotValue string
		_, err := store.Update(ctx, "k", 0, func(cur string, ok bool) (string, error) {
			gotValue, gotOK = cur, ok
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.False(t, gotOK)
		assert.Empty(t, gotValue)
	})

	t.Run("zero ttl keeps expiry of live entry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[int](session.WithClock(clock.Now))
		require.NoError(t, store.Add(ctx, "k", 1, 10*time.Second))

		clock.Advance(5 * time.Second)
		_, err := store.Update(ctx, "k", 0, func(n int, _ bool) (int, error) { return n + 1, nil })
		require.NoError(t, err)

		clock.Advance(5 * time.Second)
		v, _ := store.Get(ctx, "k", -1)
		assert.Equal(t, -1, v)
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[int]()
		const workers = 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Update(ctx, "counter", time.Hour, func(n int, _ bool) (int, error) {
					return n + 1, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		v, _ := store.Get(ctx, "counter", 0)
		assert.Equal(t, workers, v)
	})
}

func TestMemoryStoreRemoveAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock()
	store := session.NewMemoryStore[string](session.WithClock(clock.Now))

	require.NoError(t, store.Add(ctx, "a", "1", time.Hour))
	require.NoError(t, store.Add(ctx, "b", "2", time.Hour))
	require.NoError(t, store.Add(ctx, "short", "3", time.Second))
	clock.Advance(time.Second)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)

	removed, err := store.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Remove(ctx, "a")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.Remove(ctx, "short")
	require.NoError(t, err)
	assert.False(t, removed)

	stats := store.Stats()
	assert.Equal(t, int64(3), stats.Added)
	assert.Equal(t, int64(1), stats.Removed)
	assert.Equal(t, 1, stats.Active)
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delete expired agrees with lazy expiry", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](session.WithClock(clock.Now))
		require.NoError(t, store.Add(ctx, "keep", "v", time.Hour))
		require.NoError(t, store.Add(ctx, "drop", "v", time.Minute))
		clock.Advance(time.Minute)

		n, err := store.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		v, _ := store.Get(ctx, "drop", "absent")
		assert.Equal(t, "absent", v)
		assert.Equal(t, 1, store.Stats().Active)
	})

	t.Run("background sweeper lifecycle", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		store := session.NewMemoryStore[string](
			session.WithClock(clock.Now),
			session.WithSweepInterval(5*time.Millisecond),
		)
		require.NoError(t, store.Add(ctx, "k", "v", time.Second))
		clock.Advance(time.Second)

		errCh := make(chan error, 1)
		go func() { errCh <- store.Start(ctx) }()

		require.Eventually(t, func() bool {
			s := store.Stats()
			return s.IsRunning && s.Active == 0
		}, time.Second, 5*time.Millisecond)

		assert.ErrorIs(t, store.Start(ctx), session.ErrAlreadyStarted)
		require.NoError(t, store.Stop())
		assert.ErrorIs(t, <-errCh, context.Canceled)
		assert.ErrorIs(t, store.Stop(), session.ErrNotStarted)
	})

	t.Run("disabled sweep", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[string](session.WithSweepInterval(0))
		assert.ErrorIs(t, store.Start(ctx), session.ErrSweepDisabled)
	})

	t.Run("run stops with context", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore[string](session.WithSweepInterval(time.Millisecond))
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- store.Run(runCtx)() }()

		require.Eventually(t, func() bool { return store.Stats().IsRunning }, time.Second, time.Millisecond)
		cancel()
		assert.NoError(t, <-done)
	})
}
