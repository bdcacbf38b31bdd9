// Package pg manages PostgreSQL connection pools and schema migrations.
//
// Connect builds a pgx pool from Config and pings it with exponential
// backoff. Migrate applies goose migrations from any fs.FS, typically an
// embedded directory:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, migrations, log); err != nil {
//		return err
//	}
//
// InTx runs a function in a transaction, joining one already carried by the
// context via WithTx. IsNotFoundError, IsDuplicateKeyError and
// IsSerializationError classify driver errors.
package pg
