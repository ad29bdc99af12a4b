package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/setup"
	"hrportal/internal/domain/users"
	"hrportal/internal/platform/cache"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/db"
	"hrportal/internal/platform/kv"
	"hrportal/internal/platform/metrics"
	healthhandler "hrportal/internal/transport/http/handlers/health"
)

type App struct {
	Config     config.Config
	DB         *db.Pool
	Redis      *redis.Client
	Authorizer *access.Authorizer
	Drafts     *access.DraftRegistry
	Router     http.Handler

	logger *slog.Logger
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// New connects the backing stores, loads the permission table and builds
// the router. The returned App owns every connection until Close.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret; sessions end on restart")
	}

	app := &App{Config: cfg, logger: logger}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app.DB = pool
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	pingers := map[string]healthhandler.Pinger{"db": pool}
	var records kv.Store
	switch cfg.PermissionStore {
	case config.StoreRedis:
		client, err := cache.Connect(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = client
		pingers["redis"] = redisPinger{client: client}
		records = kv.NewRedis(client)
	case config.StoreMemory:
		records = kv.NewMemory()
	default:
		records = kv.NewPostgres(pool)
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}
	opts := []access.Option{access.WithLogger(logger)}
	if collector != nil {
		opts = append(opts, access.WithObserver(collector))
	}
	app.Authorizer = access.NewAuthorizer(access.NewRecordStore(records), opts...)
	if err := app.Authorizer.Start(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("start authorizer: %w", err)
	}
	if err := app.Authorizer.LastError(); err != nil {
		logger.Warn("permission table degraded to defaults", "err", err)
	}
	app.Drafts = access.NewDraftRegistry(app.Authorizer)

	usersSvc := users.NewService(users.NewStore(pool))
	auditSvc := audit.New(pool)
	setupSvc := setup.NewService(records, usersSvc, app.Authorizer, auditSvc)
	if err := setupSvc.EnsureSuperAdmin(ctx, setup.SeedAdmin{
		Email:      cfg.SeedAdminEmail,
		Password:   cfg.SeedAdminPassword,
		Name:       cfg.SeedAdminName,
		Department: cfg.SeedAdminDepartment,
	}); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed super admin: %w", err)
	}

	deps := Deps{
		Config:     cfg,
		Logger:     logger,
		Authorizer: app.Authorizer,
		Drafts:     app.Drafts,
		Users:      usersSvc,
		Setup:      setupSvc,
		Audit:      auditSvc,
		Metrics:    collector,
		Pingers:    pingers,
	}
	app.Router = NewRouter(deps)
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.Config.ReadTimeout,
		WriteTimeout:      a.Config.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("hrportal listening", "addr", a.Config.Addr, "permissionStore", a.Config.PermissionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.Drafts != nil {
		a.Drafts.Close()
	}
	if a.Authorizer != nil {
		a.Authorizer.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
