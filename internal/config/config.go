package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Postgres  PostgresConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Analysis  AnalysisConfig
	MQ        MQConfig
	Reports   ReportsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver        string
	RunMigrations bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
}

// SQLiteConfig holds the database file location.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AllowRegistration     bool
}

// RateLimitConfig bounds public write endpoints.
type RateLimitConfig struct {
	SubmitRequests      int
	SubmitWindowSeconds int
	AuthRequests        int
	KeyPrefix           string
}

// StorageConfig selects where submitted images are kept.
type StorageConfig struct {
	Driver             string
	Bucket             string
	Endpoint           string
	AccessKey          string
	SecretKey          string
	UseSSL             bool
	Region             string
	GCSProjectID       string
	GCSCredentialsFile string
	MaxImageBytes      int64
}

// AnalysisConfig points at the external image analysis endpoint.
type AnalysisConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
	Workers        int
	QueueSize      int
}

// MQConfig selects the broker used to relay report events.
type MQConfig struct {
	Driver            string
	Topic             string
	RabbitURL         string
	PubSubProjectID   string
	PubSubCredentials string
	QueueDurable      bool
}

// ReportsConfig toggles report access rules.
type ReportsConfig struct {
	PublicListing bool
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	StorageDriverNone  = "none"
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"
	StorageDriverGCS   = "gcs"

	MQDriverNone     = "none"
	MQDriverRabbitMQ = "rabbitmq"
	MQDriverPubSub   = "pubsub"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "incident-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			RunMigrations: getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			ApplicationName: getEnv("APP_NAME", "incident-service"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "data/incidents.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24*30),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AllowRegistration:     getEnvAsBool("AUTH_ALLOW_REGISTRATION", true),
		},
		RateLimit: RateLimitConfig{
			SubmitRequests:      getEnvAsInt("RATELIMIT_SUBMIT_REQUESTS", 10),
			SubmitWindowSeconds: getEnvAsInt("RATELIMIT_SUBMIT_WINDOW_SECONDS", 3600),
			AuthRequests:        getEnvAsInt("RATELIMIT_AUTH_REQUESTS", 10),
			KeyPrefix:           getEnv("RATELIMIT_KEY_PREFIX", "ratelimit:reports"),
		},
		Storage: StorageConfig{
			Driver:             strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverNone)),
			Bucket:             os.Getenv("STORAGE_BUCKET"),
			Endpoint:           os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:          os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:          os.Getenv("STORAGE_SECRET_KEY"),
			UseSSL:             getEnvAsBool("STORAGE_USE_SSL", true),
			Region:             getEnv("STORAGE_REGION", "us-east-1"),
			GCSProjectID:       os.Getenv("GCS_PROJECT_ID"),
			GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			MaxImageBytes:      int64(getEnvAsInt("IMAGE_MAX_BYTES", 5<<20)),
		},
		Analysis: AnalysisConfig{
			Endpoint:       os.Getenv("ANALYSIS_ENDPOINT"),
			APIKey:         os.Getenv("ANALYSIS_API_KEY"),
			TimeoutSeconds: getEnvAsInt("ANALYSIS_TIMEOUT_SECONDS", 20),
			Workers:        getEnvAsInt("ANALYSIS_WORKERS", 2),
			QueueSize:      getEnvAsInt("ANALYSIS_QUEUE_SIZE", 64),
		},
		MQ: MQConfig{
			Driver:            strings.ToLower(getEnv("MQ_DRIVER", MQDriverNone)),
			Topic:             getEnv("MQ_TOPIC", "report-events"),
			RabbitURL:         os.Getenv("RABBITMQ_URL"),
			PubSubProjectID:   os.Getenv("PUBSUB_PROJECT_ID"),
			PubSubCredentials: os.Getenv("PUBSUB_CREDENTIALS_FILE"),
			QueueDurable:      getEnvAsBool("RABBITMQ_QUEUE_DURABLE", true),
		},
		Reports: ReportsConfig{
			PublicListing: getEnvAsBool("REPORTS_PUBLIC_LISTING", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLite.Path) == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", StoreDriverSQLite)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Storage.Driver {
	case StorageDriverNone:
	case StorageDriverMinio, StorageDriverS3, StorageDriverGCS:
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("STORAGE_BUCKET is required when STORAGE_DRIVER=%s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.MQ.Driver {
	case MQDriverNone, MQDriverRabbitMQ, MQDriverPubSub:
	default:
		return fmt.Errorf("unsupported MQ_DRIVER %q", c.MQ.Driver)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SubmitWindow returns the submission rate limit window.
func (r RateLimitConfig) SubmitWindow() time.Duration {
	if r.SubmitWindowSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(r.SubmitWindowSeconds) * time.Second
}

// Timeout returns the analyzer call timeout.
func (a AnalysisConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Enabled reports whether an analysis endpoint is configured.
func (a AnalysisConfig) Enabled() bool {
	return strings.TrimSpace(a.Endpoint) != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
