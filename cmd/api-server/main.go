package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/api"
	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/auth"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/config"
	"github.com/hackgods/salon-scheduling/internal/db"
	"github.com/hackgods/salon-scheduling/internal/logger"
	redisclient "github.com/hackgods/salon-scheduling/internal/redis"
	"github.com/hackgods/salon-scheduling/internal/store/memory"
	"github.com/hackgods/salon-scheduling/internal/user"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl); err != nil {
		zl.Fatal("api-server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	zl.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store", cfg.StoreDriver),
		zap.String("lock_backend", cfg.LockBackend),
	)

	sched, err := cfg.Schedule()
	if err != nil {
		return err
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		users    user.Repository
		services catalog.Repository
		appts    appointment.Repository
		pgPool   *pgxpool.Pool
	)

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			return fmt.Errorf("postgres connection: %w", err)
		}
		defer pgPool.Close()

		if err := db.Migrate(rootCtx, pgPool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		zl.Info("connected to Postgres")

		users = user.NewPgRepository(pgPool)
		services = catalog.NewPgRepository(pgPool)
		appts = appointment.NewPgRepository(pgPool)
	default:
		store := memory.New()
		users, services, appts = store, store, store
		zl.Warn("using in-memory store, data is lost on restart")
	}

	var (
		locker redisclient.Locker
		rdb    *redis.Client
	)

	switch cfg.LockBackend {
	case config.LockBackendRedis:
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connection: %w", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				zl.Warn("error closing redis", zap.Error(err))
			}
		}()
		zl.Info("connected to Redis")
		locker = redisclient.NewRedisDayLocker(rdb, cfg.LockTTL, cfg.LockWait)
	default:
		locker = redisclient.NewLocalDayLocker()
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := user.NewService(users, tokens, zl.Named("user"))
	cat := catalog.NewCatalog(services, users, zl.Named("catalog"))
	apptSvc := appointment.NewService(appts, services, users, locker, sched, zl.Named("appointment"))

	handler := api.NewRouter(api.RouterConfig{
		Users:          userSvc,
		Catalog:        cat,
		Appointments:   apptSvc,
		Tokens:         tokens,
		Logger:         zl.Named("http"),
		PgPool:         pgPool,
		Redis:          rdb,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
		Env:            cfg.Env,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	zl.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
