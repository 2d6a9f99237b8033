package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qpaperai/qpaper-api/internal/bootstrap"
	"github.com/qpaperai/qpaper-api/internal/config"
	"github.com/qpaperai/qpaper-api/internal/db"
	"github.com/qpaperai/qpaper-api/internal/ingest"
	"github.com/qpaperai/qpaper-api/internal/observability"
)

// Server holds the state for the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	postgres *db.PostgresDB
	mongo    *db.MongoDB
	redis    *db.RedisDB
	logger   zerolog.Logger
	http     *http.Server

	worker       *ingest.Worker
	workerCancel context.CancelFunc
	workerDone   chan struct{}

	tracerShutdown func(context.Context) error
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	postgres, mongo, redis, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	var tracerShutdown func(context.Context) error
	if cfg.Tracing.Enabled {
		tracerShutdown, err = observability.InitTracer(context.Background(), "qpaper-api", cfg.Tracing.Endpoint)
		if err != nil {
			// Tracing is telemetry, not a dependency. Run without it.
			lgr.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
			tracerShutdown = nil
		} else {
			lgr.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("Tracing initialized")
		}
	}

	deps, err := bootstrap.BuildDependencies(cfg, postgres, mongo, redis, lgr)
	if err != nil {
		postgres.Pool.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)

	s := &Server{
		config:         cfg,
		router:         router,
		postgres:       postgres,
		mongo:          mongo,
		redis:          redis,
		logger:         lgr,
		tracerShutdown: tracerShutdown,
	}

	if cfg.Ingest.Embedded {
		s.worker = deps.Worker
	} else {
		lgr.Info().Msg("Embedded ingest worker disabled, papers are processed by a separate worker process")
	}

	return s, nil
}

// Run starts the HTTP server (and the embedded ingest worker when enabled)
// and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	if s.worker != nil {
		workerCtx, cancel := context.WithCancel(context.Background())
		s.workerCancel = cancel
		s.workerDone = make(chan struct{})
		go func() {
			defer close(s.workerDone)
			s.worker.Run(workerCtx)
		}()
	}

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for errors starting the server
	serverErrors := make(chan error, 1)

	// Start the server
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	// Channel to listen for OS signals
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive either a server error or an OS signal
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	// Perform graceful shutdown
	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources. The HTTP
// server drains first, then the worker finishes its current job, then the
// stores close.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	shutdownError := false

	// Shutdown HTTP server
	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	// Stop the embedded worker and wait for the in-flight job
	if s.workerCancel != nil {
		s.logger.Info().Msg("Stopping ingest worker...")
		s.workerCancel()
		select {
		case <-s.workerDone:
			s.logger.Info().Msg("Ingest worker stopped.")
		case <-ctx.Done():
			s.logger.Warn().Msg("Timed out waiting for ingest worker to stop")
			shutdownError = true
		}
	}

	// Flush traces
	if s.tracerShutdown != nil {
		if err := s.tracerShutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Tracer shutdown error")
			shutdownError = true
		}
	}

	// Close stores
	if s.postgres != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.postgres.Pool.Close()
	}
	if s.mongo != nil {
		if err := s.mongo.Close(ctx); err != nil {
			s.logger.Error().Err(err).Msg("MongoDB disconnect error")
			shutdownError = true
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Redis close error")
			shutdownError = true
		}
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
