package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/qpaperai/qpaper-api/docs" // Import generated swagger docs
	appControllers "github.com/qpaperai/qpaper-api/internal/app/controllers"
	appMigrations "github.com/qpaperai/qpaper-api/internal/app/migrations"
	appRepos "github.com/qpaperai/qpaper-api/internal/app/repositories"
	appRoutes "github.com/qpaperai/qpaper-api/internal/app/routes"
	appServices "github.com/qpaperai/qpaper-api/internal/app/services"
	"github.com/qpaperai/qpaper-api/internal/config"
	"github.com/qpaperai/qpaper-api/internal/db"
	"github.com/qpaperai/qpaper-api/internal/ingest"
	appMiddleware "github.com/qpaperai/qpaper-api/internal/middleware"
	"github.com/qpaperai/qpaper-api/internal/observability"
	pkgAuth "github.com/qpaperai/qpaper-api/internal/pkg/auth"
	"github.com/qpaperai/qpaper-api/internal/pkg/cache"
	"github.com/qpaperai/qpaper-api/internal/pkg/filestorage"
	"github.com/qpaperai/qpaper-api/internal/pkg/helpers"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
	"github.com/qpaperai/qpaper-api/internal/pkg/mathpix"
	"github.com/qpaperai/qpaper-api/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService     *appServices.AuthService
	CourseService   *appServices.CourseService
	QuestionService appServices.QuestionService // Interface type
	StudentService  appServices.StudentService  // Interface type
	PaperService    appServices.PaperService    // Interface type
	UserService     appServices.UserService     // Interface type
	StatsService    *appServices.StatsService

	AuthController     *appControllers.AuthController
	CourseController   *appControllers.CourseController
	QuestionController *appControllers.QuestionController
	StudentController  *appControllers.StudentController
	PaperController    *appControllers.PaperController
	UserController     *appControllers.UserController
	StatsController    *appControllers.StatsController
	HealthController   *appControllers.HealthController

	AuthMiddleware  *appMiddleware.AuthMiddleware
	AuthRateLimiter *appMiddleware.RateLimiter // nil when rate limiting is disabled
	Repos           *appRepos.Repositories
	JWTService      *pkgAuth.JWTService
	Cache           *cache.Cache
	Prom            *observability.Prom
	FileStorage     *filestorage.LocalStorage
	Processor       *ingest.Processor
	Worker          *ingest.Worker
	Logger          zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the Postgres, Mongo and Redis connections and
// runs migrations. The Redis handle is nil when caching is disabled; the
// cache layer treats a nil handle as a permanent miss, so startup never
// depends on Redis being reachable.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, *db.MongoDB, *db.RedisDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	postgres, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, nil, err
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := postgres.Pool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		postgres.Pool.Close()
		return nil, nil, nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(postgres.Pool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		postgres.Pool.Close()
		return nil, nil, nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		postgres.Pool.Close()
		return nil, nil, nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	mongo, err := db.NewMongoDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
		postgres.Pool.Close()
		return nil, nil, nil, err
	}
	lgr.Info().Str("database", cfg.Mongo.Database).Msg("MongoDB connection established.")

	var redis *db.RedisDB
	if cfg.Redis.Enabled {
		redis, err = db.NewRedisDB(cfg)
		if err != nil {
			// Cache is an accelerator, not a dependency. Start without it.
			lgr.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			redis = nil
		} else {
			lgr.Info().Msg("Redis connection established.")
		}
	} else {
		lgr.Info().Msg("Redis cache disabled by configuration")
	}

	// Create default data (after migrations)
	if err := seed.CreateDefaultData(context.Background(), postgres.Pool, lgr); err != nil {
		// Log the error but don't necessarily fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return postgres, mongo, redis, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, postgres *db.PostgresDB, mongo *db.MongoDB, redis *db.RedisDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(postgres.Pool, mongo.Database)
	deps.Prom = observability.NewProm()

	if redis != nil {
		deps.Cache = cache.New(redis.Client, cfg.CacheTTL())
	} else {
		deps.Cache = cache.New(nil, cfg.CacheTTL())
	}

	// Initialize file storage
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Upload.Dir)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Extractors are tried in order: Mathpix OCR when credentials are
	// present, plain text as the fallback for .txt uploads.
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

	deps.Processor = ingest.NewProcessor(deps.Repos, deps.FileStorage, extractors, ingest.Settings{
		MinConfidence:       cfg.Ingest.MinOCRConfidence,
		SimilarityThreshold: cfg.Ingest.SimilarityThreshold,
		PageWorkers:         cfg.Ingest.Workers,
	})
	deps.Worker = ingest.NewWorker(
		deps.Repos,
		deps.Processor,
		deps.Prom,
		helpers.ParseDuration(cfg.Ingest.PollInterval, 2*time.Second),
		helpers.ParseDuration(cfg.Ingest.VisibilityTimeout, 5*time.Minute),
	)

	// Initialize services
	deps.AuthService = appServices.NewAuthService(deps.Repos, deps.JWTService)
	deps.CourseService = appServices.NewCourseService(deps.Repos, deps.Cache)
	deps.QuestionService = appServices.NewQuestionService(deps.Repos, deps.Cache, deps.Prom, cfg.Ingest.SimilarityThreshold)
	deps.StudentService = appServices.NewStudentService(deps.Repos)
	deps.PaperService = appServices.NewPaperService(deps.Repos, deps.FileStorage, cfg.Upload.MaxSizeMB*1024*1024, cfg.Ingest.MaxAttempts)
	deps.UserService = appServices.NewUserService(deps.Repos)
	deps.StatsService = appServices.NewStatsService(deps.Repos)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	if cfg.RateLimit.Enabled {
		deps.AuthRateLimiter = appMiddleware.NewRateLimiter(
			cfg.RateLimit.Limit,
			helpers.ParseDuration(cfg.RateLimit.Window, time.Minute),
		)
	}

	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService)
	deps.QuestionController = appControllers.NewQuestionController(deps.QuestionService)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.PaperController = appControllers.NewPaperController(deps.PaperService)
	deps.UserController = appControllers.NewUserController(deps.UserService)
	deps.StatsController = appControllers.NewStatsController(deps.StatsService)
	deps.HealthController = appControllers.NewHealthController(postgres, mongo, redis)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestID())
	router.Use(appMiddleware.RequestLogger())
	router.Use(appMiddleware.SecurityHeaders())
	router.Use(appMiddleware.CORS(nil))
	router.Use(deps.Prom.GinMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware("qpaper-api"))
	}

	// Prometheus scrape endpoint
	router.GET("/metrics", deps.Prom.Handler())

	// Setup Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.QuestionController,
		deps.StudentController,
		deps.PaperController,
		deps.UserController,
		deps.StatsController,
		deps.HealthController,
		deps.AuthMiddleware,
		deps.AuthRateLimiter,
	)

	return router
}
