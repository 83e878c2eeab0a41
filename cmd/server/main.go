package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/heracore/backend/api/handler"
	"github.com/heracore/backend/internal/config"
	"github.com/heracore/backend/internal/infrastructure/archive"
	"github.com/heracore/backend/internal/infrastructure/monitor"
	pgInfra "github.com/heracore/backend/internal/infrastructure/postgres"
	redisInfra "github.com/heracore/backend/internal/infrastructure/redis"
	"github.com/heracore/backend/internal/middleware"
	"github.com/heracore/backend/internal/router"
	"github.com/heracore/backend/internal/services"
	"github.com/heracore/backend/internal/services/lifecycle"
	"github.com/heracore/backend/pkg/httpcontext"
	"github.com/heracore/backend/pkg/logger"
	"github.com/heracore/backend/repository/postgres"
	redisRepo "github.com/heracore/backend/repository/redis"
	"github.com/heracore/backend/usecase/invoke"
	"github.com/heracore/backend/usecase/procedures"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	archiveStore, err := archive.Open(cfg.Ledger.ArchivePath, "ledger_archive")
	if err != nil {
		zapLogger.Fatal("failed to open ledger archive", zap.Error(err))
	}
	manager.Register("archive", func(ctx context.Context) error {
		return archiveStore.Close()
	})

	mon := monitor.New(pool, redisClient, archiveStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	orgRepo := postgres.NewOrganizationRepository(pool)
	entityRepo := postgres.NewEntityRepository(pool)
	fieldRepo := postgres.NewFieldRepository(pool)
	relRepo := postgres.NewRelationshipRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	ledgerRepo := redisRepo.NewLedgerCache(redisClient, postgres.NewLedgerRepository(pool), cfg.Ledger.CacheTTL)

	archiver := services.NewLedgerArchiver(
		ledgerRepo,
		archiveStore,
		mon,
		zapLogger,
		services.ArchiverConfig{
			Interval:  cfg.Ledger.SweepInterval,
			Retention: cfg.Ledger.Retention,
			BatchSize: cfg.Ledger.SweepBatch,
		},
	)
	archiver.Start()
	manager.Register("ledger_archiver", func(ctx context.Context) error {
		archiver.Stop(ctx)
		return nil
	})

	registry := invoke.NewRegistry()
	procedures.New(entityRepo, fieldRepo, relRepo, txnRepo, zapLogger).Register(registry)
	zapLogger.Info("procedures registered", zap.Strings("codes", registry.Codes()))

	adapter := invoke.NewAdapter(registry, ledgerRepo, orgRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Procedure:    apiHandler.NewProcedureHandler(adapter, ctxAdapter, zapLogger),
		Organization: apiHandler.NewOrganizationHandler(orgRepo, txnRepo, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
