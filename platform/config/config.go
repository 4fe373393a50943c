// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDistributionCron() string
	GetStaleLockTTL() time.Duration
	GetStaleLockSweepInterval() time.Duration
}

// MinIOConfig provides settings for the quarantine archive bucket.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketQuarantine() string
	IsMinIOEnabled() bool
}

// PoolConfig provides the tuning knobs of the lead pool engines.
type PoolConfig interface {
	GetDistributionMode() string
	GetDistributionConcurrency() int
	GetPoolBatchSize() int
	GetPoolScanPageSize() int
	GetCleanupPurgeSoftFlags() bool
	GetQualityRulesFile() string
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

const (
	// StoreDriverPostgres selects the pgx-backed lead store.
	StoreDriverPostgres = "postgres"
	// StoreDriverMemory selects the in-process lead store.
	StoreDriverMemory = "memory"
)

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	StoreDriver             string
	MigrationsEnabled       bool
	JWTAccessSecret         string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	DistributionCron        string
	DistributionMode        string
	DistributionConcurrency int
	PoolBatchSize           int
	PoolScanPageSize        int
	StaleLockTTL            time.Duration
	StaleLockSweepInterval  time.Duration
	CleanupPurgeSoftFlags   bool
	QualityRulesFile        string
	PhoneDefaultRegion      string
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinioBucketQuarantine   string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string                { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                 { return c.AsynqConcurrency }
func (c *Config) GetDistributionCron() string              { return c.DistributionCron }
func (c *Config) GetStaleLockTTL() time.Duration           { return c.StaleLockTTL }
func (c *Config) GetStaleLockSweepInterval() time.Duration { return c.StaleLockSweepInterval }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string         { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string        { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string        { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool             { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketQuarantine() string { return c.MinioBucketQuarantine }
func (c *Config) IsMinIOEnabled() bool             { return c.MinIOEndpoint != "" }

// PoolConfig implementation
func (c *Config) GetDistributionMode() string     { return c.DistributionMode }
func (c *Config) GetDistributionConcurrency() int { return c.DistributionConcurrency }
func (c *Config) GetPoolBatchSize() int           { return c.PoolBatchSize }
func (c *Config) GetPoolScanPageSize() int        { return c.PoolScanPageSize }
func (c *Config) GetCleanupPurgeSoftFlags() bool  { return c.CleanupPurgeSoftFlags }
func (c *Config) GetQualityRulesFile() string     { return c.QualityRulesFile }
func (c *Config) GetPhoneDefaultRegion() string   { return c.PhoneDefaultRegion }

// UsesMemoryStore reports whether the in-process lead store is selected.
func (c *Config) UsesMemoryStore() bool {
	return strings.EqualFold(c.StoreDriver, StoreDriverMemory)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		MigrationsEnabled:       strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "4")),
		DistributionCron:        getEnv("DISTRIBUTION_CRON", "@every 15m"),
		DistributionMode:        strings.ToLower(getEnv("DISTRIBUTION_MODE", "top_up")),
		DistributionConcurrency: mustInt(getEnv("DISTRIBUTION_CONCURRENCY", "4")),
		PoolBatchSize:           mustInt(getEnv("POOL_BATCH_SIZE", "300")),
		PoolScanPageSize:        mustInt(getEnv("POOL_SCAN_PAGE_SIZE", "500")),
		StaleLockTTL:            mustDuration(getEnv("STALE_LOCK_TTL", "30m")),
		StaleLockSweepInterval:  mustDuration(getEnv("STALE_LOCK_SWEEP_INTERVAL", "5m")),
		CleanupPurgeSoftFlags:   strings.EqualFold(getEnv("CLEANUP_PURGE_SOFT_FLAGS", "false"), "true"),
		QualityRulesFile:        getEnv("QUALITY_RULES_FILE", ""),
		PhoneDefaultRegion:      getEnv("PHONE_DEFAULT_REGION", "US"),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketQuarantine:   getEnv("MINIO_BUCKET_QUARANTINE", "lead-quarantine"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.DistributionMode != "top_up" && c.DistributionMode != "rotate" {
		return fmt.Errorf("DISTRIBUTION_MODE must be top_up or rotate")
	}
	if c.PoolBatchSize < 1 {
		return fmt.Errorf("POOL_BATCH_SIZE must be a positive integer")
	}
	if c.PoolScanPageSize < 1 {
		return fmt.Errorf("POOL_SCAN_PAGE_SIZE must be a positive integer")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
