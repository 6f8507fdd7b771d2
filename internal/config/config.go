package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment constants
const (
	EnvProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Filter    FilterConfig
	Redis     RedisConfig
	Sweep     SweepConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string
	Env     string
	Version string
	Debug   bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64

	// EnforceHTTPS redirects plain-HTTP requests when the gateway sits
	// behind a TLS-terminating proxy. Enabled automatically in production.
	EnforceHTTPS bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string

	// SkipHealthLogs skips request logging for health check endpoints.
	SkipHealthLogs bool

	// SlowRequestSeconds logs requests slower than this as warnings.
	SlowRequestSeconds int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Admin credentials checked by the login endpoint.
	AdminEmail    string
	AdminPassword string

	// AdminPasswordHashed marks AdminPassword as a bcrypt hash rather
	// than a plaintext value.
	AdminPasswordHashed bool

	// TokenSecret signs session tokens. Required.
	TokenSecret string

	// TokenTTL is the session token lifetime (default: 24h).
	TokenTTL time.Duration

	// Lockout settings
	MaxLoginAttempts int           // Failed attempts before lockout (default: 5)
	LockoutDuration  time.Duration // Lockout window length (default: 15m)

	// LoginDelay is the fixed pause applied to every login attempt to
	// slow down online guessing (default: 1s).
	LoginDelay time.Duration

	// CookieName is the session cookie checked by redirect gating.
	CookieName string
}

// RateLimitConfig holds request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool

	// Auth endpoints: strict window
	AuthLimit  int
	AuthWindow time.Duration

	// General API endpoints: generous window
	APILimit  int
	APIWindow time.Duration
}

// FilterConfig holds traffic filter configuration.
type FilterConfig struct {
	// RulesFile optionally points at a YAML file with extra blocked
	// user agent substrings and path patterns. Built-in rules always apply.
	RulesFile string
}

// RedisConfig holds Redis configuration for the shared rate limit store.
// When disabled the gateway uses its in-memory store.
type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          int
	Password      string
	DB            int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	TLSEnabled    bool
	TLSSkipVerify bool
}

// SweepConfig holds expired-entry sweeper configuration.
type SweepConfig struct {
	Enabled bool
	// Schedule is a cron expression (default: every 5 minutes).
	Schedule string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "gateway"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
			Debug:   getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20), // 1MB default
			EnforceHTTPS:    getEnvBool("SERVER_ENFORCE_HTTPS", getEnv("APP_ENV", "development") == EnvProduction),
		},
		Log: LogConfig{
			Level:              getEnv("LOG_LEVEL", "info"),
			Format:             getEnv("LOG_FORMAT", "json"),
			SkipHealthLogs:     getEnvBool("LOG_SKIP_HEALTH", true),
			SlowRequestSeconds: getEnvInt("LOG_SLOW_REQUEST_SECONDS", 5),
		},
		Auth: AuthConfig{
			AdminEmail:          getEnv("AUTH_ADMIN_EMAIL", ""),
			AdminPassword:       getEnv("AUTH_ADMIN_PASSWORD", ""),
			AdminPasswordHashed: getEnvBool("AUTH_ADMIN_PASSWORD_HASHED", false),
			TokenSecret:         getEnv("AUTH_TOKEN_SECRET", ""),
			TokenTTL:            getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			MaxLoginAttempts:    getEnvInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LockoutDuration:     getEnvDuration("AUTH_LOCKOUT_DURATION", 15*time.Minute),
			LoginDelay:          getEnvDuration("AUTH_LOGIN_DELAY", time.Second),
			CookieName:          getEnv("AUTH_COOKIE_NAME", "student_tools_auth"),
		},
		RateLimit: RateLimitConfig{
			Enabled:    getEnvBool("RATE_LIMIT_ENABLED", true),
			AuthLimit:  getEnvInt("RATE_LIMIT_AUTH_LIMIT", 5),
			AuthWindow: getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
			APILimit:   getEnvInt("RATE_LIMIT_API_LIMIT", 100),
			APIWindow:  getEnvDuration("RATE_LIMIT_API_WINDOW", time.Minute),
		},
		Filter: FilterConfig{
			RulesFile: getEnv("FILTER_RULES_FILE", ""),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnvInt("REDIS_PORT", 6379),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TLSEnabled:    getEnvBool("REDIS_TLS_ENABLED", false),
			TLSSkipVerify: getEnvBool("REDIS_TLS_SKIP_VERIFY", false),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvBool("SWEEP_ENABLED", true),
			Schedule: getEnv("SWEEP_SCHEDULE", "*/5 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.validateBasic(); err != nil {
		return err
	}
	if c.App.Env == EnvProduction {
		return c.validateProduction()
	}
	return nil
}

// validateBasic validates basic configuration regardless of environment.
func (c *Config) validateBasic() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	return c.validateLog()
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("AUTH_TOKEN_SECRET is required")
	}
	if len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("AUTH_TOKEN_SECRET must be at least 32 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive")
	}
	if c.Auth.MaxLoginAttempts < 1 {
		return fmt.Errorf("AUTH_MAX_LOGIN_ATTEMPTS must be at least 1")
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("AUTH_LOCKOUT_DURATION must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("AUTH_COOKIE_NAME must not be empty")
	}
	return nil
}

// validateRateLimit validates rate limiting configuration.
func (c *Config) validateRateLimit() error {
	if !c.RateLimit.Enabled {
		return nil
	}
	if c.RateLimit.AuthLimit < 1 {
		return fmt.Errorf("RATE_LIMIT_AUTH_LIMIT must be at least 1")
	}
	if c.RateLimit.APILimit < 1 {
		return fmt.Errorf("RATE_LIMIT_API_LIMIT must be at least 1")
	}
	if c.RateLimit.AuthWindow <= 0 || c.RateLimit.APIWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive")
	}
	return nil
}

// validateLog validates logging configuration.
func (c *Config) validateLog() error {
	validLevels := map[string]bool{
		"debug": true, "DEBUG": true,
		"info": true, "INFO": true,
		"warn": true, "WARN": true,
		"error": true, "ERROR": true,
	}
	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	validFormats := map[string]bool{
		"json": true, "JSON": true,
		"text": true, "TEXT": true,
		"": true, // Empty is allowed (defaults to json)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or text)", c.Log.Format)
	}

	if c.Log.SlowRequestSeconds < 0 {
		return fmt.Errorf("LOG_SLOW_REQUEST_SECONDS must be non-negative, got %d", c.Log.SlowRequestSeconds)
	}

	return nil
}

// validateProduction validates production-specific configuration.
func (c *Config) validateProduction() error {
	if c.App.Debug {
		return fmt.Errorf("debug mode must be disabled in production")
	}
	if c.Log.Level == "debug" {
		return fmt.Errorf("log level should not be 'debug' in production")
	}
	if !c.RateLimit.Enabled {
		return fmt.Errorf("rate limiting must be enabled in production")
	}
	if len(c.Auth.TokenSecret) < 64 {
		return fmt.Errorf("AUTH_TOKEN_SECRET must be at least 64 characters in production")
	}
	if c.Auth.AdminEmail == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("AUTH_ADMIN_EMAIL and AUTH_ADMIN_PASSWORD are required in production")
	}
	if !c.Server.EnforceHTTPS {
		return fmt.Errorf("SERVER_ENFORCE_HTTPS must be true in production")
	}
	if c.Redis.Enabled {
		return c.validateProductionRedis()
	}
	return nil
}

// validateProductionRedis validates Redis configuration for production.
func (c *Config) validateProductionRedis() error {
	if c.Redis.Password == "" {
		return fmt.Errorf("redis password must be set in production")
	}
	if !c.Redis.TLSEnabled {
		return fmt.Errorf("redis TLS must be enabled in production")
	}
	if c.Redis.TLSSkipVerify {
		return fmt.Errorf("redis TLS skip verify must be false in production")
	}
	return nil
}

// Addr returns the Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the HTTP server address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment returns true if the application is in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if the application is in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
