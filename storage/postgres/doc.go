// Package postgres implements the credential, session and vault stores on
// PostgreSQL through pgx, with queries built by squirrel and the schema
// managed by embedded goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := postgres.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	creds := postgres.NewCredentialRepository(pool)
//	sessions := postgres.NewSessionRepository(pool)
//	records := postgres.NewVaultRepository(pool)
package postgres
