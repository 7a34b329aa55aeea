package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	StripeAPIKey string

	// AdminAPIKeyHash is the bcrypt hash of the admin API key exchanged
	// for a JWT on /api/auth/token.
	AdminAPIKeyHash string
	JWTSecret       string
	JWTTTL          time.Duration

	// DownloadTTL bounds the lifetime of signed master/stems URLs.
	DownloadTTL time.Duration
	// DownloadBaseURL and DownloadSecret configure the local HMAC signer
	// used when no object store is configured.
	DownloadBaseURL string
	DownloadSecret  string

	// SweepInterval drives the in-process release sweep ticker. The sweep
	// is idempotent, so an external cron may also run it concurrently.
	SweepInterval time.Duration

	// ListCacheTTL bounds how long a public listing page may be served
	// from Redis.
	ListCacheTTL time.Duration

	SyncBaseDelay   time.Duration
	SyncMaxAttempts int
	SyncCallTimeout time.Duration

	LogLevel  string
	LogPath   string
	LogMaxMB  int
	LogMaxAge int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as a duration or returns a
// default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "beatforge"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "beatforge"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		StripeAPIKey: os.Getenv("STRIPE_API_KEY"),

		AdminAPIKeyHash: os.Getenv("ADMIN_API_KEY_HASH"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          getEnvDuration("JWT_TTL", 12*time.Hour),

		DownloadTTL:     getEnvDuration("DOWNLOAD_TTL", 30*time.Minute),
		DownloadBaseURL: getEnv("DOWNLOAD_BASE_URL", "http://127.0.0.1:8080/downloads"),
		DownloadSecret:  os.Getenv("DOWNLOAD_SECRET"),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
		ListCacheTTL:  getEnvDuration("LIST_CACHE_TTL", time.Minute),

		SyncBaseDelay:   getEnvDuration("SYNC_BASE_DELAY", 500*time.Millisecond),
		SyncMaxAttempts: getEnvInt("SYNC_MAX_ATTEMPTS", 3),
		SyncCallTimeout: getEnvDuration("SYNC_CALL_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPath:   getEnv("LOG_PATH", ""),
		LogMaxMB:  getEnvInt("LOG_MAX_MB", 100),
		LogMaxAge: getEnvInt("LOG_MAX_AGE", 28),
	}
}
