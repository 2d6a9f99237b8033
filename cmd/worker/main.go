package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/config"
	"github.com/qpaperai/qpaper-api/internal/db"
	"github.com/qpaperai/qpaper-api/internal/ingest"
	"github.com/qpaperai/qpaper-api/internal/observability"
	"github.com/qpaperai/qpaper-api/internal/pkg/filestorage"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
	"github.com/qpaperai/qpaper-api/internal/pkg/mathpix"
)

// Standalone ingest worker. Runs the same pipeline the API embeds, as its
// own process, for deployments that scale ingest separately. Set
// INGEST_EMBEDDED=false on the API when running these.
func main() {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Logging.Level)),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr := log.Logger

	postgres, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	defer postgres.Pool.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = postgres.Pool.Ping(pingCtx)
	cancelPing()
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		os.Exit(1)
	}

	mongo, err := db.NewMongoDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
		os.Exit(1)
	}

	storage, err := filestorage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		os.Exit(1)
	}

	var extractors []ingest.Extractor
	if cfg.Mathpix.AppKey != "" {
		client := mathpix.NewClient(mathpix.Config{
			AppID:   cfg.Mathpix.AppID,
			AppKey:  cfg.Mathpix.AppKey,
			BaseURL: cfg.Mathpix.BaseURL,
		}, lgr)
		extractors = append(extractors, ingest.NewMathpixExtractor(client))
	} else {
		lgr.Warn().Msg("Mathpix credentials not set, PDF OCR disabled")
	}
	extractors = append(extractors, ingest.NewPlainTextExtractor())

	repos := repositories.NewRepositories(postgres.Pool, mongo.Database)
	processor := ingest.NewProcessor(repos, storage, extractors, ingest.Settings{
		MinConfidence:       cfg.Ingest.MinOCRConfidence,
		SimilarityThreshold: cfg.Ingest.SimilarityThreshold,
		PageWorkers:         cfg.Ingest.Workers,
	})
	worker := ingest.NewWorker(
		repos,
		processor,
		observability.NewProm(),
		helpers.ParseDuration(cfg.Ingest.PollInterval, 2*time.Second),
		helpers.ParseDuration(cfg.Ingest.VisibilityTimeout, 5*time.Minute),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lgr.Info().Msg("Ingest worker starting")
	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mongo.Close(shutdownCtx); err != nil {
		lgr.Error().Err(err).Msg("MongoDB disconnect error")
	}
	lgr.Info().Msg("Ingest worker stopped")
}
