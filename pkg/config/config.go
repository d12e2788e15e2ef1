package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Assignment AssignmentConfig
	Worklist   WorklistConfig
	Storage    StorageConfig
	Share      ShareConfig
	Cleanup    CleanupConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the projection result cache.
type CacheConfig struct {
	Enabled     bool
	DefaultTTL  time.Duration
	WorklistTTL time.Duration
}

// AssignmentConfig carries workflow policy constants. The due window is the
// SLA deadline applied to every new doctor assignment.
type AssignmentConfig struct {
	DueWindow       time.Duration
	DefaultPriority string
}

// WorklistConfig bounds projection result sets.
type WorklistConfig struct {
	MaxPageSize       int
	DefaultPageSize   int
	ProjectionTimeout time.Duration
}

// StorageConfig points at the S3-compatible report artifact store.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	ReportBucket string
}

// ShareConfig governs signed report share links.
type ShareConfig struct {
	Secret string
	TTL    time.Duration
}

// CleanupConfig tunes the out-of-band blob deletion retry queue.
type CleanupConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_CACHE"),
		DefaultTTL:  parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
		WorklistTTL: parseDuration(v.GetString("CACHE_WORKLIST_TTL"), 5*time.Minute),
	}

	cfg.Assignment = AssignmentConfig{
		DueWindow:       parseDuration(v.GetString("ASSIGNMENT_DUE_WINDOW"), 24*time.Hour),
		DefaultPriority: v.GetString("ASSIGNMENT_DEFAULT_PRIORITY"),
	}

	cfg.Worklist = WorklistConfig{
		MaxPageSize:       v.GetInt("WORKLIST_MAX_PAGE_SIZE"),
		DefaultPageSize:   v.GetInt("WORKLIST_DEFAULT_PAGE_SIZE"),
		ProjectionTimeout: parseDuration(v.GetString("WORKLIST_PROJECTION_TIMEOUT"), 30*time.Second),
	}

	cfg.Storage = StorageConfig{
		Endpoint:     v.GetString("STORAGE_ENDPOINT"),
		AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
		SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
		UseSSL:       v.GetBool("STORAGE_USE_SSL"),
		ReportBucket: v.GetString("STORAGE_REPORT_BUCKET"),
	}

	cfg.Share = ShareConfig{
		Secret: v.GetString("SHARE_SIGNING_SECRET"),
		TTL:    parseDuration(v.GetString("SHARE_TTL"), 24*time.Hour),
	}

	cfg.Cleanup = CleanupConfig{
		Workers:    v.GetInt("CLEANUP_WORKERS"),
		MaxRetries: v.GetInt("CLEANUP_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("CLEANUP_RETRY_DELAY"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "radpulse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")
	v.SetDefault("CACHE_WORKLIST_TTL", "5m")

	v.SetDefault("ASSIGNMENT_DUE_WINDOW", "24h")
	v.SetDefault("ASSIGNMENT_DEFAULT_PRIORITY", "NORMAL")

	v.SetDefault("WORKLIST_MAX_PAGE_SIZE", 500)
	v.SetDefault("WORKLIST_DEFAULT_PAGE_SIZE", 50)
	v.SetDefault("WORKLIST_PROJECTION_TIMEOUT", "30s")

	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_REPORT_BUCKET", "radpulse-reports")

	v.SetDefault("SHARE_SIGNING_SECRET", "dev_share_secret")
	v.SetDefault("SHARE_TTL", "24h")

	v.SetDefault("CLEANUP_WORKERS", 1)
	v.SetDefault("CLEANUP_MAX_RETRIES", 3)
	v.SetDefault("CLEANUP_RETRY_DELAY", "30s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
