package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beatforge/cache"
	"beatforge/config"
	"beatforge/core/catalog"
	"beatforge/core/download"
	"beatforge/core/pricing"
	"beatforge/db"
	"beatforge/logger"
	"beatforge/repository"
	"beatforge/storage"
)

// Start initializes dependencies and runs the HTTP server until a signal
// arrives.
func Start() {
	cfg := config.Load()

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.MigrateReviewModels(); err != nil {
		logger.Fatal("failed to migrate review models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	var signer download.Signer
	if cfg.MinioAccessKey != "" {
		minioClient, err := storage.InitMinio(cfg)
		if err != nil {
			logger.Fatal("failed to initialize minio", logger.ErrorField(err))
		}
		signer = storage.NewPresignSigner(minioClient, cfg.MinioBucket)
	} else {
		logger.Warn("no object store configured, using local HMAC signer")
		signer = storage.NewLocalSigner(cfg.DownloadBaseURL, cfg.DownloadSecret)
	}

	var syncer catalog.ProductSyncer
	if cfg.StripeAPIKey != "" {
		syncer = pricing.NewSyncer(
			pricing.NewStripeClient(cfg.StripeAPIKey),
			cfg.SyncBaseDelay, cfg.SyncMaxAttempts, cfg.SyncCallTimeout)
	} else {
		logger.Warn("no payment processor configured, product sync disabled")
	}

	beatRepo := repository.NewMySQLBeatRepository(db.DB)
	reviewRepo := repository.NewGormReviewRepository(db.GormDB)
	listCache := cache.NewCatalogCache(db.RedisClient, cfg.ListCacheTTL)

	svc := catalog.NewService(beatRepo, reviewRepo, listCache, syncer)
	issuer := download.NewIssuer(signer, cfg.DownloadTTL)

	handler := NewAPIHandler(svc, issuer, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background release sweep. The sweep is idempotent, so this ticker can
	// coexist with an external cron running `beatforge sweep`.
	sweepStop := make(chan struct{})
	go runSweepLoop(svc, cfg.SweepInterval, sweepStop)

	go func() {
		logger.Info("http server listening", logger.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	close(sweepStop)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", logger.ErrorField(err))
	}

	// Let in-flight product syncs finish their follow-up writes.
	svc.WaitForSync()
	logger.Info("server stopped")
}

func runSweepLoop(svc *catalog.Service, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := svc.ActivateScheduledBeats(context.Background()); err != nil {
				logger.Error("release sweep failed", logger.ErrorField(err))
			}
		case <-stop:
			return
		}
	}
}
