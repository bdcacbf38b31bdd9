package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type entry[V any] struct {
	mu        sync.Mutex
	value     V
	expiresAt time.Time
	live      bool
	removed   bool
}

// MemoryStore is an in-process Store. Each key has its own lock; the map lock
// is only held to find or insert entries, never while waiting on an entry.
// Call Start to run the background sweep; expired entries are also dropped
// lazily when read.
type MemoryStore[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	opts    Options

	cancel context.CancelFunc
	wg     sync.WaitGroup

	added   atomic.Int64
	expired atomic.Int64
	removed atomic.Int64
}

var _ Store[any] = (*MemoryStore[any])(nil)

// NewMemoryStore creates an in-memory store.
func NewMemoryStore[V any](opts ...Option) *MemoryStore[V] {
	return &MemoryStore[V]{
		entries: make(map[string]*entry[V]),
		opts:    NewOptions(opts...),
	}
}

// lock returns the locked entry for key, creating it when create is set.
// It returns nil when the key is absent and create is false.
func (s *MemoryStore[V]) lock(key string, create bool) *entry[V] {
	for {
		s.mu.RLock()
		e, ok := s.entries[key]
		s.mu.RUnlock()

		if !ok {
			if !create {
				return nil
			}
			s.mu.Lock()
			if e, ok = s.entries[key]; !ok {
				e = &entry[V]{}
				s.entries[key] = e
			}
			s.mu.Unlock()
		}

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// Removed between lookup and lock; look again.
		e.mu.Unlock()
	}
}

// drop unlinks a locked entry from the map.
func (s *MemoryStore[V]) drop(key string, e *entry[V]) {
	e.removed = true
	s.mu.Lock()
	if s.entries[key] == e {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

func (s *MemoryStore[V]) alive(e *entry[V], now time.Time) bool {
	return e.live && now.Before(e.expiresAt)
}

// Add stores value under key for ttl.
func (s *MemoryStore[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	e := s.lock(key, true)
	defer e.mu.Unlock()

	e.value = value
	e.expiresAt = s.opts.Now().Add(s.opts.TTL(ttl))
	e.live = true
	s.added.Add(1)
	return nil
}

// Get returns the value under key, or def when it is absent or expired.
func (s *MemoryStore[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if key == "" {
		return def, ErrEmptyKey
	}
	e := s.lock(key, false)
	if e == nil {
		return def, nil
	}
	defer e.mu.Unlock()

	if !s.alive(e, s.opts.Now()) {
		if e.live {
			s.expired.Add(1)
		}
		s.drop(key, e)
		return def, nil
	}
	return e.value, nil
}

// Update atomically applies fn to the value under key.
func (s *MemoryStore[V]) Update(ctx context.Context, key string, ttl time.Duration, fn func(current V, ok bool) (V, error)) (V, error) {
	var zero V
	if key == "" {
		return zero, ErrEmptyKey
	}
	e := s.lock(key, true)
	defer e.mu.Unlock()

	now := s.opts.Now()
	ok := s.alive(e, now)
	if !ok && e.live {
		s.expired.Add(1)
		e.live = false
		e.value = zero
	}

	next, err := fn(e.value, ok)
	if err != nil {
		if !ok {
			s.drop(key, e)
		}
		return zero, err
	}

	e.value = next
	if ttl > 0 || !ok {
		e.expiresAt = now.Add(s.opts.TTL(ttl))
	}
	if !ok {
		s.added.Add(1)
	}
	e.live = true
	return next, nil
}

// Remove deletes key and reports whether a live entry existed.
func (s *MemoryStore[V]) Remove(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	e := s.lock(key, false)
	if e == nil {
		return false, nil
	}
	defer e.mu.Unlock()

	existed := s.alive(e, s.opts.Now())
	s.drop(key, e)
	if existed {
		s.removed.Add(1)
	}
	return existed, nil
}

// All returns a snapshot of the live entries.
func (s *MemoryStore[V]) All(ctx context.Context) (map[string]V, error) {
	now := s.opts.Now()
	out := make(map[string]V)
	for key, e := range s.snapshot() {
		e.mu.Lock()
		if !e.removed && s.alive(e, now) {
			out[key] = e.value
		}
		e.mu.Unlock()
	}
	return out, nil
}

func (s *MemoryStore[V]) snapshot() map[string]*entry[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]*entry[V], len(s.entries))
	for k, e := range s.entries {
		snap[k] = e
	}
	return snap
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (s *MemoryStore[V]) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.opts.Now()
	var n int64
	for key, e := range s.snapshot() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		e.mu.Lock()
		if !e.removed && !s.alive(e, now) {
			s.drop(key, e)
			n++
		}
		e.mu.Unlock()
	}
	s.expired.Add(n)
	return n, nil
}

// Start runs the background sweep until ctx is cancelled or Stop is called.
// It blocks; run it in a goroutine or use Run.
func (s *MemoryStore[V]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if s.opts.SweepInterval <= 0 {
		s.mu.Unlock()
		return ErrSweepDisabled
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return Sweep(ctx, s.opts.SweepInterval, s.opts.Logger, s.DeleteExpired)
}

// Stop cancels the background sweep and waits for it to finish.
func (s *MemoryStore[V]) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return ErrNotStarted
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(s.opts.ShutdownTimeout):
		return ErrShutdownTimeout
	}
}

// Run adapts the sweeper to errgroup-style lifecycles.
func (s *MemoryStore[V]) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- s.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = s.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns counters for monitoring.
func (s *MemoryStore[V]) Stats() Stats {
	s.mu.RLock()
	active := len(s.entries)
	running := s.cancel != nil
	s.mu.RUnlock()

	return Stats{
		Active:    active,
		Added:     s.added.Load(),
		Expired:   s.expired.Load(),
		Removed:   s.removed.Load(),
		IsRunning: running,
	}
}
