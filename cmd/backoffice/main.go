// Command backoffice serves the authentication and integration-settings API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	red "github.com/redis/go-redis/v9"

	"github.com/qiqiqi-tech/backoffice/modules/account"
	"github.com/qiqiqi-tech/backoffice/modules/settings"
	"github.com/qiqiqi-tech/backoffice/pkg/config"
	"github.com/qiqiqi-tech/backoffice/pkg/environment"
	"github.com/qiqiqi-tech/backoffice/pkg/httpserver"
	"github.com/qiqiqi-tech/backoffice/pkg/logger"
	"github.com/qiqiqi-tech/backoffice/pkg/pg"
	"github.com/qiqiqi-tech/backoffice/pkg/redis"
	"github.com/qiqiqi-tech/backoffice/pkg/requestid"
	"github.com/qiqiqi-tech/backoffice/pkg/secrets"
	"github.com/qiqiqi-tech/backoffice/pkg/session"
	"github.com/qiqiqi-tech/backoffice/storage/postgres"
	redisstore "github.com/qiqiqi-tech/backoffice/storage/redis"
	"github.com/qiqiqi-tech/backoffice/storage/s3vault"
	"github.com/qiqiqi-tech/backoffice/svc/auth"
	"github.com/qiqiqi-tech/backoffice/svc/vault"
)

type appConfig struct {
	Env               string `env:"APP_ENV" envDefault:"development"`
	Name              string `env:"APP_NAME" envDefault:"backoffice"`
	CredentialBackend string `env:"CREDENTIAL_BACKEND" envDefault:"memory"` // memory | postgres
	SessionBackend    string `env:"SESSION_BACKEND" envDefault:"memory"`    // memory | postgres | redis
	VaultBackend      string `env:"VAULT_BACKEND" envDefault:"memory"`      // memory | postgres | s3
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("backoffice stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return fmt.Errorf("load logger config: %w", err)
	}
	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var secretsCfg secrets.Config
	if err := config.Load(&secretsCfg); err != nil {
		return fmt.Errorf("load secrets config: %w", err)
	}
	cipher, err := secrets.NewCipher(secretsCfg)
	if err != nil {
		return err
	}

	deps := &backends{log: log}
	defer deps.close()

	credentials, err := deps.credentialStore(ctx, app.CredentialBackend)
	if err != nil {
		return err
	}
	sessions, err := deps.sessionStore(ctx, app.SessionBackend)
	if err != nil {
		return err
	}
	vaultStore, err := deps.vaultStore(ctx, app.VaultBackend)
	if err != nil {
		return err
	}

	var authCfg auth.Config
	if err := config.Load(&authCfg); err != nil {
		return fmt.Errorf("load auth config: %w", err)
	}
	authOpts, err := authCfg.Options()
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(credentials, sessions, cipher, append(authOpts, auth.WithLogger(log))...)
	if err != nil {
		return err
	}

	if admin := authCfg.BootstrapAdmin; admin.Password != "" {
		cred, created, err := authSvc.EnsureAdmin(ctx, auth.AdminParams{
			Username: admin.Username,
			Email:    admin.Email,
			FullName: admin.FullName,
			Password: admin.Password,
		})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.InfoContext(ctx, "admin account created", logger.Username(cred.Username), logger.Component("bootstrap"))
		}
	}

	var vaultCfg vault.Config
	if err := config.Load(&vaultCfg); err != nil {
		return fmt.Errorf("load vault config: %w", err)
	}
	vaultSvc, err := vault.NewService(vaultStore, cipher, append(vaultCfg.Options(), vault.WithLogger(log))...)
	if err != nil {
		return err
	}

	var sessCfg session.Config
	if err := config.Load(&sessCfg); err != nil {
		return fmt.Errorf("load session config: %w", err)
	}
	transport := session.NewHeaderTransport(sessCfg.HeaderName)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, environment.Middleware(environment.Parse(app.Env)))
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, deps.checks...))
	r.Mount("/api", account.Router(account.RouterOptions{
		Auth: account.NewAuthService(authSvc,
			account.WithLogger(log),
			account.WithTransport(transport),
		),
		Settings: settings.NewService(vaultSvc, authSvc,
			settings.WithLogger(log),
			settings.WithTransport(transport),
		),
	}))

	if deps.sessionSweeper != nil {
		go sweepSessions(ctx, log, deps.sessionSweeper, sessCfg.CleanupInterval)
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

// backends opens shared connections lazily so that only configured
// infrastructure is dialed.
type backends struct {
	log     *slog.Logger
	pool    *pgxpool.Pool
	redis   *red.Client
	closers []func()
	checks  []httpserver.Check

	// sessionSweeper is set for stores without native expiry.
	sessionSweeper session.Store
}

func (b *backends) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, fmt.Errorf("load postgres config: %w", err)
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool, cfg, b.log); err != nil {
		pool.Close()
		return nil, err
	}
	b.pool = pool
	b.closers = append(b.closers, pool.Close)
	b.checks = append(b.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
	return pool, nil
}

func (b *backends) redisClient(ctx context.Context) (*red.Client, redis.Config, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, fmt.Errorf("load redis config: %w", err)
	}
	if b.redis != nil {
		return b.redis, cfg, nil
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	b.redis = client
	b.closers = append(b.closers, func() { _ = client.Close() })
	b.checks = append(b.checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	return client, cfg, nil
}

func (b *backends) credentialStore(ctx context.Context, kind string) (auth.CredentialStore, error) {
	switch kind {
	case "memory":
		b.log.WarnContext(ctx, "credentials are kept in memory and lost on restart", logger.Component("bootstrap"))
		return auth.NewMemoryStore(), nil
	case "postgres":
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewCredentialRepository(pool), nil
	}
	return nil, fmt.Errorf("unknown credential backend %q", kind)
}

func (b *backends) sessionStore(ctx context.Context, kind string) (session.Store, error) {
	switch kind {
	case "memory":
		var cfg session.Config
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load session config: %w", err)
		}
		store := session.NewMemoryStore(cfg.CleanupInterval)
		b.closers = append(b.closers, func() { _ = store.Close() })
		return store, nil
	case "postgres":
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		store := postgres.NewSessionRepository(pool)
		b.sessionSweeper = store
		return store, nil
	case "redis":
		client, cfg, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.NewSessionStore(client, cfg.KeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", kind)
}

func (b *backends) vaultStore(ctx context.Context, kind string) (vault.Store, error) {
	switch kind {
	case "memory":
		return vault.NewMemoryStore(), nil
	case "postgres":
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return postgres.NewVaultRepository(pool), nil
	case "s3":
		var cfg s3vault.Config
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load s3 vault config: %w", err)
		}
		return s3vault.New(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown vault backend %q", kind)
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func sweepSessions(ctx context.Context, log *slog.Logger, store session.Store, every time.Duration) {
	if every <= 0 {
		return
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := store.DeleteExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WarnContext(ctx, "expired session sweep failed", logger.Error(err), logger.Component("sessions"))
			}
		}
	}
}
