// Package app wires the LabLink auth server runtime: config, logging,
// persistence, the session service, and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lablink/cmd/identity"
	authapi "lablink/cmd/internal/auth/api"
	"lablink/cmd/internal/auth/oauth"
	"lablink/cmd/internal/auth/session"
)

// App owns the HTTP server and the resources behind it.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth     *authapi.Handler
	sessions *session.Service
	sweep    *sweeper

	metricsReg *prometheus.Registry
}

// New constructs a fully wired App instance from config and logger.
//
// Without LABLINK_DATABASE_URL the app runs on in-memory stores. That mode
// exists for local development and tests; every session and nonce is lost on
// restart.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	oauthCfg, err := oauth.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	authCfg := authapi.LoadConfigFromEnv()

	store, ledger, states, dbPool, dbEnabled, err := newStores(context.Background(), cfg, oauthCfg, log)
	if err != nil {
		return nil, err
	}

	closeOnErr := func() {
		if dbPool != nil {
			dbPool.Close()
		}
	}

	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := session.NewMetrics(metricsReg)

	registry := oauth.BuildRegistry(oauthCfg)
	log.Info("oauth.providers", "tags", registry.Tags())

	sessions := session.NewService(sessCfg, tokens, ledger, store, registry, states, log, metrics)

	auth, err := authapi.NewHandler(log, authCfg, sessCfg, sessions, store)
	if err != nil {
		closeOnErr()
		return nil, err
	}

	return &App{
		cfg:        cfg,
		log:        log,
		dbPool:     dbPool,
		dbEnabled:  dbEnabled,
		auth:       auth,
		sessions:   sessions,
		sweep:      newSweeper(ledger, states, log, cfg.SweepInterval),
		metricsReg: metricsReg,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.metricsReg)

	var handler http.Handler = mux
	handler = WithSecurityHeaders(handler)
	if len(a.cfg.CORSAllowedOrigins) > 0 {
		handler = WithCORS(handler, a.cfg, a.log)
	}
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.sweep.run(sweepCtx)

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStores decides between Postgres-backed persistence and the in-memory
// dev stores. All three stores always come from the same backend; mixing
// would let a rotated session point at a principal that does not exist.
func newStores(
	ctx context.Context,
	cfg Config,
	oauthCfg oauth.Config,
	log Logger,
) (identity.Store, session.Ledger, oauth.StateStore, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_stores")
		return identity.NewMemoryStore(),
			session.NewMemoryLedger(),
			oauth.NewMemoryStateStore(oauthCfg.StateTTL),
			nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, false, err
	}

	store, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, false, err
	}
	ledger, err := session.NewPostgresLedger(pool)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, false, err
	}
	states, err := oauth.NewPostgresStateStore(pool, oauthCfg.StateTTL)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, false, err
	}

	log.Info("db.enabled.postgres_stores")
	return store, ledger, states, pool, true, nil
}
