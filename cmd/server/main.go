package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"houseprice/internal/config"
	"houseprice/internal/estimator"
	"houseprice/internal/handler"
	"houseprice/internal/logger"
	"houseprice/internal/metrics"
	"houseprice/internal/repository"
	"houseprice/internal/routes"
	"houseprice/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	log := logger.New(logger.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer log.Sync()

	log.Info("House Price API",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	pipeline, err := loadPipeline(cfg, log)
	if err != nil {
		log.Fatal("Failed to load model", zap.Error(err))
	}

	info := pipeline.Info()
	metrics.ModelInfo.WithLabelValues(info.Name, info.Estimator).Set(1)
	log.Info("Model loaded",
		zap.String("name", info.Name),
		zap.String("estimator", info.Estimator),
		zap.String("target_transform", info.TargetTransform),
		zap.Int("neighborhoods", len(info.Neighborhoods)),
	)

	// Initialize services and handlers
	predictionService := service.NewPredictionService(pipeline, log.Named("prediction"))
	predictHandler := handler.NewPredictHandler(predictionService, log.Named("handler"))

	router, err := routes.SetupRoutes(cfg, routes.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}, predictHandler, log.Named("http"))
	if err != nil {
		log.Fatal("Failed to set up routes", zap.Error(err))
	}

	// Serve static files
	// This function is implemented in embed.go (production) or static_dev.go (development)
	setupStaticFiles(router, log)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

// loadPipeline reads the model artifact from the configured source
func loadPipeline(cfg *config.Config, log *zap.Logger) (*estimator.Pipeline, error) {
	switch cfg.Model.Source {
	case config.ModelSourcePostgres:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, err
		}
		// the artifact is read once, so the pool is not kept open
		defer repo.Close()

		log.Info("Connected to PostgreSQL database", zap.String("model", cfg.Model.Name))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return estimator.LoadFromStore(ctx, repo, cfg.Model.Name)
	default:
		log.Info("Loading model artifact", zap.String("path", cfg.Model.Path))
		return estimator.LoadFile(cfg.Model.Path)
	}
}
