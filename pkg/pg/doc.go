// Package pg wires PostgreSQL through pgx: pool construction with retry,
// embedded goose migrations, a transaction helper, and predicates for the
// SQLSTATE codes the repositories branch on.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//	    return err
//	}
package pg
