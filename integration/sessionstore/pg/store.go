package pg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/routekit/core/session"
	pgdb "github.com/dmitrymomot/routekit/integration/database/pg"
)

// Store is a session.Store backed by the routekit_sessions table.
// Expired rows read as absent; Run purges them periodically.
type Store[V any] struct {
	pool *pgxpool.Pool
	opts session.Options
}

var _ session.Store[int] = (*Store[int])(nil)

// New returns a store using pool. The table must exist; see Migrations.
func New[V any](pool *pgxpool.Pool, opts ...session.Option) *Store[V] {
	return &Store[V]{pool: pool, opts: session.NewOptions(opts...)}
}

// Add implements session.Store.
func (s *Store[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) error {
	if key == "" {
		return session.ErrEmptyKey
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	_, err = s.db(ctx).Exec(ctx, `
		INSERT INTO routekit_sessions (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
		key, data, s.opts.Now().Add(s.opts.TTL(ttl)))
	return err
}

// Get implements session.Store.
func (s *Store[V]) Get(ctx context.Context, key string, def V) (V, error) {
	if key == "" {
		return def, session.ErrEmptyKey
	}
	var data []byte
	err := s.db(ctx).QueryRow(ctx,
		`SELECT value FROM routekit_sessions WHERE key = $1 AND expires_at > $2`,
		key, s.opts.Now()).Scan(&data)
	if pgdb.IsNotFoundError(err) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return decode[V](data)
}

// Update implements session.Store. A transaction-scoped advisory lock on the
// key serializes writers, including those racing to create the entry.
// When ctx carries a transaction (pgdb.WithTx) the update joins it.
func (s *Store[V]) Update(ctx context.Context, key string, ttl time.Duration, fn func(current V, ok bool) (V, error)) (V, error) {
	var zero V
	if key == "" {
		return zero, session.ErrEmptyKey
	}

	var result V
	err := pgdb.InTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return err
		}

		now := s.opts.Now()
		var (
			cur  V
			ok   bool
			data []byte
		)
		err := tx.QueryRow(ctx,
			`SELECT value FROM routekit_sessions WHERE key = $1 AND expires_at > $2`,
			key, now).Scan(&data)
		switch {
		case pgdb.IsNotFoundError(err):
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
			return err
		}
		out, err := encode(next)
		if err != nil {
			return err
		}

		if ok && ttl <= 0 {
			_, err = tx.Exec(ctx, `UPDATE routekit_sessions SET value = $2 WHERE key = $1`, key, out)
		} else {
			_, err = tx.Exec(ctx, `
				INSERT INTO routekit_sessions (key, value, expires_at) VALUES ($1, $2, $3)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`,
				key, out, now.Add(s.opts.TTL(ttl)))
		}
		if err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return zero, err
	}
	return result, nil
}

// Remove implements session.Store.
func (s *Store[V]) Remove(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, session.ErrEmptyKey
	}
	var expiresAt time.Time
	err := s.db(ctx).QueryRow(ctx,
		`DELETE FROM routekit_sessions WHERE key = $1 RETURNING expires_at`, key).Scan(&expiresAt)
	if pgdb.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return expiresAt.After(s.opts.Now()), nil
}

// All implements session.Store.
func (s *Store[V]) All(ctx context.Context) (map[string]V, error) {
	rows, err := s.db(ctx).Query(ctx,
		`SELECT key, value FROM routekit_sessions WHERE expires_at > $1`, s.opts.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]V)
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		v, err := decode[V](data)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, rows.Err()
}

// DeleteExpired removes expired rows and returns how many were deleted.
func (s *Store[V]) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db(ctx).Exec(ctx,
		`DELETE FROM routekit_sessions WHERE expires_at <= $1`, s.opts.Now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Run purges expired rows every sweep interval until ctx is done.
func (s *Store[V]) Run(ctx context.Context) error {
	err := session.Sweep(ctx, s.opts.SweepInterval, s.opts.Logger, s.DeleteExpired)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store[V]) db(ctx context.Context) dbtx {
	if tx, ok := pgdb.TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

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
