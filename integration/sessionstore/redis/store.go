package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/session"
)

// ErrConflict is returned by Update when the key kept changing under
// concurrent writers for every retry.
var ErrConflict = errors.New("session update conflict")

// Config configures a Store.
type Config struct {
	// Prefix namespaces keys (default: "session:").
	Prefix string `env:"SESSION_REDIS_PREFIX" envDefault:"session:"`
	// ScanBatchSize is the COUNT hint for SCAN in All (default: 1000).
	ScanBatchSize int `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
	// MaxRetries bounds optimistic retries in Update (default: 10).
	MaxRetries int `env:"SESSION_REDIS_MAX_RETRIES" envDefault:"10"`
}

// Store is a session.Store backed by Redis. Values are stored as JSON and
// expire through Redis key TTLs, so no sweeper is needed.
type Store[V any] struct {
	client redis.UniversalClient
	cfg    Config
	opts   session.Options
}

var _ session.Store[int] = (*Store[int])(nil)

// New returns a store using client.
func New[V any](client redis.UniversalClient, cfg Config, opts ...session.Option) *Store[V] {
	if cfg.Prefix == "" {
		cfg.Prefix = "session:"
	}
	if cfg.ScanBatchSize <= 0 {
		cfg.ScanBatchSize = 1000
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	return &Store[V]{client: client, cfg: cfg, opts: session.NewOptions(opts...)}
}

func (s *Store[V]) key(k string) string { return s.cfg.Prefix + k }

// Add implements session.Store.
func (s *Store[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) error {
	if key == "" {
		return session.ErrEmptyKey
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, s.opts.TTL(ttl)).Err()
}

// Get implements session.Store.
func (s *Store[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if key == "" {
		return def, session.ErrEmptyKey
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return decode[V](data)
}

// Update implements session.Store with WATCH/MULTI, retrying when another
// writer touches the key between read and write.
func (s *Store[V]) Update(ctx context.Context, key string, ttl time.Duration, fn func(current V, ok bool) (V, error)) (V, error) {
	var zero V
	if key == "" {
		return zero, session.ErrEmptyKey
	}
	k := s.key(key)

	var result V
	txf := func(tx *redis.Tx) error {
		var (
			cur V
			ok  bool
		)
		data, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if cur, err = decode[V](data); err != nil {
				return err
			}
			ok = true
		}

		next, err := fn(cur, ok)
		if err != nil {
			return &fnError{err}
		}
		out, err := encode(next)
		if err != nil {
			return err
		}

		exp := s.opts.TTL(ttl)
		if ttl <= 0 && ok {
			exp = redis.KeepTTL
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, out, exp)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, k)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var fe *fnError
		if errors.As(err, &fe) {
			return zero, fe.err
		}
		return zero, err
	}
	s.opts.Logger.WarnContext(ctx, "session update gave up",
		logger.Component("sessionstore.redis"),
		logger.Count("attempts", s.cfg.MaxRetries),
	)
	return zero, fmt.Errorf("%w: %s", ErrConflict, key)
}

// Remove implements session.Store.
func (s *Store[V]) Remove(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, session.ErrEmptyKey
	}
	n, err := s.client.Del(ctx, s.key(key)).Result()
	return n > 0, err
}

// All implements session.Store by scanning the prefix. Keys that expire
// between SCAN and MGET are skipped.
func (s *Store[V]) All(ctx context.Context) (map[string]V, error) {
	out := make(map[string]V)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.cfg.Prefix+"*", int64(s.cfg.ScanBatchSize)).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			vals, err := s.client.MGet(ctx, keys...).Result()
			if err != nil {
				return nil, err
			}
			for i, raw := range vals {
				str, ok := raw.(string)
				if !ok {
					continue
				}
				v, err := decode[V]([]byte(str))
				if err != nil {
					return nil, err
				}
				out[strings.TrimPrefix(keys[i], s.cfg.Prefix)] = v
			}
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// fnError carries the caller's update error out of the WATCH callback.
type fnError struct{ err error }

func (e *fnError) Error() string { return e.err.Error() }
func (e *fnError) Unwrap() error { return e.err }

func encode[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(session.ErrEncode, err)
	}
	return data, nil
}

func decode[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(session.ErrDecode, err)
	}
	return v, nil
}
