package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyConnString     = errors.New("empty postgres connection string")
	ErrFailedToParseConfig = errors.New("failed to parse postgres connection string")
	ErrFailedToOpenDBConn  = errors.New("failed to open postgres connection pool")
	ErrNotReady            = errors.New("postgres did not become ready within the given time period")
	ErrMigrationFailed     = errors.New("failed to apply migrations")
	ErrHealthcheckFailed   = errors.New("postgres healthcheck failed")
)

// IsNotFoundError reports whether err means a query returned no rows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsSerializationError reports whether err is a serialization failure or
// deadlock, both of which are safe to retry.
func IsSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
