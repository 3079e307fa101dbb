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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerMinute() int
}

// SchedulerConfig provides Redis and asynq settings for background work.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AutomationConfig provides settings for the batch re-evaluation job.
type AutomationConfig interface {
	GetAutomationCronSpec() string
	GetAutomationPageSize() int
	GetAutomationWorkers() int
	GetAutomationLeaseTTL() time.Duration
	GetAutomationLeaseBackend() string
	GetAutomationTenantScoped() bool
}

// CalendarConfig provides settings for the organization calendar provider.
type CalendarConfig interface {
	GetCalendarCacheTTL() time.Duration
}

// RulesConfig provides the optional rule overrides file.
type RulesConfig interface {
	GetRulesFile() string
}

// Batch lease backends.
const (
	LeaseBackendRedis = "redis"
	LeaseBackendLocal = "local"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	MetricsAddr            string
	DatabaseURL            string
	MigrationsEnabled      bool
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RateLimitPerMinute     int
	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	AutomationCronSpec     string
	AutomationPageSize     int
	AutomationWorkers      int
	AutomationLeaseTTL     time.Duration
	AutomationLeaseBackend string
	AutomationTenantScoped bool
	CalendarCacheTTL       time.Duration
	RulesFile              string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerMinute() int { return c.RateLimitPerMinute }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// AutomationConfig implementation
func (c *Config) GetAutomationCronSpec() string        { return c.AutomationCronSpec }
func (c *Config) GetAutomationPageSize() int           { return c.AutomationPageSize }
func (c *Config) GetAutomationWorkers() int            { return c.AutomationWorkers }
func (c *Config) GetAutomationLeaseTTL() time.Duration { return c.AutomationLeaseTTL }
func (c *Config) GetAutomationLeaseBackend() string    { return c.AutomationLeaseBackend }
func (c *Config) GetAutomationTenantScoped() bool      { return c.AutomationTenantScoped }

// CalendarConfig implementation
func (c *Config) GetCalendarCacheTTL() time.Duration { return c.CalendarCacheTTL }

// RulesConfig implementation
func (c *Config) GetRulesFile() string { return c.RulesFile }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:            getEnv("METRICS_ADDR", ":9090"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		MigrationsEnabled:      strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerMinute:     positiveInt(getEnv("RATE_LIMIT_PER_MINUTE", "120"), 120),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       positiveInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		AutomationCronSpec:     getEnv("AUTOMATION_CRON", "@daily"),
		AutomationPageSize:     positiveInt(getEnv("AUTOMATION_PAGE_SIZE", "50"), 50),
		AutomationWorkers:      positiveInt(getEnv("AUTOMATION_WORKERS", "8"), 8),
		AutomationLeaseTTL:     positiveDuration(getEnv("AUTOMATION_LEASE_TTL", "2h"), 2*time.Hour),
		AutomationLeaseBackend: strings.ToLower(getEnv("AUTOMATION_LEASE_BACKEND", LeaseBackendRedis)),
		AutomationTenantScoped: strings.EqualFold(getEnv("AUTOMATION_TENANT_SCOPED", "false"), "true"),
		CalendarCacheTTL:       positiveDuration(getEnv("CALENDAR_CACHE_TTL", "10m"), 10*time.Minute),
		RulesFile:              getEnv("LEAD_RULES_FILE", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch cfg.AutomationLeaseBackend {
	case LeaseBackendRedis, LeaseBackendLocal:
	default:
		return nil, fmt.Errorf("AUTOMATION_LEASE_BACKEND must be redis or local, got %q", cfg.AutomationLeaseBackend)
	}
	if cfg.AutomationLeaseBackend == LeaseBackendRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when AUTOMATION_LEASE_BACKEND is redis")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func positiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func positiveDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
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
