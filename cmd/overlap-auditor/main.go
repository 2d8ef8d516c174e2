package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/appointment"
	"github.com/hackgods/salon-scheduling/internal/catalog"
	"github.com/hackgods/salon-scheduling/internal/config"
	"github.com/hackgods/salon-scheduling/internal/db"
	"github.com/hackgods/salon-scheduling/internal/logger"
	redisclient "github.com/hackgods/salon-scheduling/internal/redis"
	"github.com/hackgods/salon-scheduling/internal/user"
)

// overlap-auditor periodically scans upcoming days for appointments that
// overlap because a service became longer after they were booked. It only
// reports; appointments are never moved or removed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Fatalf("overlap-auditor needs STORE_DRIVER=%s", config.StoreDriverPostgres)
	}

	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("overlap-auditor starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Int("days", cfg.AuditDays),
	)

	sched, err := cfg.Schedule()
	if err != nil {
		zl.Fatal("invalid schedule", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zl.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zl.Info("connected to Postgres")

	// the auditor never books, so an in-process locker is enough
	svc := appointment.NewService(
		appointment.NewPgRepository(pgPool),
		catalog.NewPgRepository(pgPool),
		user.NewPgRepository(pgPool),
		redisclient.NewLocalDayLocker(),
		sched,
		zl.Named("appointment"),
	)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.AuditDays, zl)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zl.Info("shutdown signal received, stopping overlap-auditor")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.AuditDays, zl)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, days int, zl *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	reports, err := svc.AuditOverlaps(runCtx, start, days)
	if err != nil {
		zl.Error("audit run error", zap.Error(err))
		return
	}
	zl.Info("audit run complete",
		zap.Int("overlaps", len(reports)),
		zap.Duration("took", time.Since(start)),
	)
}
