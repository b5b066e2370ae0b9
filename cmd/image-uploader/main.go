package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-uploader/internal/api/handlers/image"
	"github.com/aliskhannn/image-uploader/internal/api/router"
	"github.com/aliskhannn/image-uploader/internal/api/server"
	"github.com/aliskhannn/image-uploader/internal/config"
	"github.com/aliskhannn/image-uploader/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-uploader/internal/infra/kafka/producer"
	imagemsg "github.com/aliskhannn/image-uploader/internal/kafka/handlers/image"
	"github.com/aliskhannn/image-uploader/internal/metrics"
	"github.com/aliskhannn/image-uploader/internal/migrate"
	"github.com/aliskhannn/image-uploader/internal/processor"
	imagerepo "github.com/aliskhannn/image-uploader/internal/repository/image"
	outcomerepo "github.com/aliskhannn/image-uploader/internal/repository/outcome"
	imagesvc "github.com/aliskhannn/image-uploader/internal/service/image"
	"github.com/aliskhannn/image-uploader/internal/service/intent"
	"github.com/aliskhannn/image-uploader/internal/service/upload"
	"github.com/aliskhannn/image-uploader/internal/storage/object"
	"github.com/aliskhannn/image-uploader/migrations"
)

func main() {
	configPath := flag.String("config", "./config/config.yml", "path to the YAML config")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, version) and exit")
	flag.Parse()

	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad(*configPath)

	if *migrateCmd != "" {
		if err := migrate.Run(cfg.Database.Master.DSN(), migrations.FS, *migrateCmd); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("migration failed")
		}
		return
	}

	if cfg.Database.AutoMigrate {
		if err := migrate.Run(cfg.Database.Master.DSN(), migrations.FS, "up"); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Retry strategy for Kafka calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Object storage (MinIO); the bucket is created if missing.
	storage, err := object.NewStorage(ctx, cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	observer, err := metrics.NewPrometheusObserver("", prometheus.DefaultRegisterer)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	// Repositories, producer and services.
	records := imagerepo.NewRepository(db)
	outcomes := outcomerepo.NewRepository(db)
	p := producer.New(&cfg.Kafka, strategy)

	intentService := intent.NewService(storage, cfg.Upload, observer)
	uploadService := upload.NewService(records, storage, p, observer)
	imageService := imagesvc.NewService(storage, records, outcomes, processor.New(cfg.Processing), observer)

	// Kafka consumer running derivative processing.
	c := consumer.New(&cfg.Kafka, strategy, imagemsg.NewUploadedHandler(imageService))

	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	// HTTP server.
	h := image.NewHandler(intentService, uploadService, imageService)
	r := router.Setup(h, cfg.Server.AllowedOrigins, promhttp.Handler())
	s := server.New(":"+cfg.Server.HTTPPort, r)

	go func() {
		zlog.Logger.Info().Str("addr", s.Addr).Msg("starting server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Wait for the in-flight processing run to finish.
	wg.Wait()

	if err := p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err := c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}
	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
		}
	}
}
