package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		// URL is a full DSN (DATABASE_URL). When set it wins over the
		// individual host/port/user fields below.
		URL             string `yaml:"url" env:"DATABASE_URL"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Mongo struct {
		URL      string `yaml:"url" env:"MONGODB_URL"`
		Database string `yaml:"database" env:"MONGODB_DATABASE"`
	} `yaml:"mongo"`

	Redis struct {
		URL      string `yaml:"url" env:"REDIS_URL"`
		CacheTTL string `yaml:"cache_ttl" env:"REDIS_CACHE_TTL"`
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	} `yaml:"redis"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET_KEY"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Upload struct {
		Dir       string `yaml:"dir" env:"UPLOAD_DIR"`
		MaxSizeMB int64  `yaml:"max_size_mb" env:"UPLOAD_MAX_SIZE_MB"`
	} `yaml:"upload"`

	Pagination struct {
		DefaultPageSize int `yaml:"default_page_size" env:"PAGINATION_DEFAULT_PAGE_SIZE"`
		SearchPageSize  int `yaml:"search_page_size" env:"PAGINATION_SEARCH_PAGE_SIZE"`
		MaxPageSize     int `yaml:"max_page_size" env:"PAGINATION_MAX_PAGE_SIZE"`
	} `yaml:"pagination"`

	Ingest struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
		MinOCRConfidence    float64 `yaml:"min_ocr_confidence" env:"MIN_OCR_CONFIDENCE"`
		Workers             int     `yaml:"workers" env:"INGEST_WORKERS"`
		MaxAttempts         int     `yaml:"max_attempts" env:"INGEST_MAX_ATTEMPTS"`
		PollInterval        string  `yaml:"poll_interval" env:"INGEST_POLL_INTERVAL"`
		VisibilityTimeout   string  `yaml:"visibility_timeout" env:"INGEST_VISIBILITY_TIMEOUT"`
		Embedded            bool    `yaml:"embedded" env:"INGEST_EMBEDDED"`
	} `yaml:"ingest"`

	Mathpix struct {
		AppID   string `yaml:"app_id" env:"MATHPIX_APP_ID"`
		AppKey  string `yaml:"app_key" env:"MATHPIX_API_KEY"`
		BaseURL string `yaml:"base_url" env:"MATHPIX_BASE_URL"`
	} `yaml:"mathpix"`

	// AWS and Pinecone are provisioning surfaces consumed by deploy tooling.
	// The API only carries them so one .env works across environments.
	AWS struct {
		Region          string `yaml:"region" env:"AWS_REGION"`
		AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
		SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
		S3Bucket        string `yaml:"s3_bucket" env:"AWS_S3_BUCKET"`
	} `yaml:"aws"`

	Pinecone struct {
		APIKey string `yaml:"api_key" env:"PINECONE_API_KEY"`
		Index  string `yaml:"index" env:"PINECONE_INDEX"`
	} `yaml:"pinecone"`

	RateLimit struct {
		Enabled bool   `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		Limit   int    `yaml:"limit" env:"RATE_LIMIT_LIMIT"`
		Window  string `yaml:"window" env:"RATE_LIMIT_WINDOW"`
	} `yaml:"rate_limit"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled" env:"OTEL_ENABLED"`
		Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables.
// A .env file in the working directory is applied first so local overrides
// reach the env tag pass.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		err = yaml.Unmarshal(file, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Environment variables win over file values
	err := loadFromEnv(config)
	if err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "qpaper"
	config.Database.SSLMode = "disable"
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Mongo.URL = "mongodb://localhost:27017"
	config.Mongo.Database = "qpaper"

	config.Redis.URL = "redis://localhost:6379/0"
	config.Redis.CacheTTL = "5m"
	config.Redis.Enabled = true

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "qpaper.app"

	config.Upload.Dir = "./uploads"
	config.Upload.MaxSizeMB = 25

	config.Pagination.DefaultPageSize = 10
	config.Pagination.SearchPageSize = 20
	config.Pagination.MaxPageSize = 100

	config.Ingest.SimilarityThreshold = 0.82
	config.Ingest.MinOCRConfidence = 0.60
	config.Ingest.Workers = 4
	config.Ingest.MaxAttempts = 3
	config.Ingest.PollInterval = "2s"
	config.Ingest.VisibilityTimeout = "5m"
	config.Ingest.Embedded = true

	config.Mathpix.BaseURL = "https://api.mathpix.com/v3"

	config.RateLimit.Enabled = true
	config.RateLimit.Limit = 120
	config.RateLimit.Window = "1m"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database host or url is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	if config.Ingest.SimilarityThreshold < 0 || config.Ingest.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0,1]")
	}

	if config.Ingest.MinOCRConfidence < 0 || config.Ingest.MinOCRConfidence > 1 {
		return fmt.Errorf("min OCR confidence must be within [0,1]")
	}

	return nil
}

// GetPostgresConnectionString returns the postgres DSN. DATABASE_URL wins
// when present, otherwise the DSN is composed from the individual fields.
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// CacheTTL parses the configured cache TTL, falling back to five minutes.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Redis.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	valueLower := strings.ToLower(valueStr)
	if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
		return true
	}
	if valueLower == "false" || valueLower == "0" || valueLower == "no" {
		return false
	}

	return defaultValue
}

// GetEnvAsDuration gets an environment variable as a duration or returns a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
