package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Bootstrap BootstrapConfig
	Backup    BackupConfig
}

type DatabaseConfig struct {
	Path             string
	LegacyPath       string
	BusyTimeout      time.Duration
	CacheSizeKiB     int
	MmapSize         int64
	MaxWriteAttempts int
	BaseBackoff      time.Duration
	QueryCacheTTL    time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret                string
	AccessTokenExpiry        time.Duration
	IPMaxFailedAttempts      int
	IPThrottleWindow         time.Duration
	AccountMaxFailedAttempts int
	AccountLockoutWindow     time.Duration
	BcryptCost               int
	CleanupInterval          time.Duration
	LoginRequestsPerMinute   int
	WriteRequestsPerMinute   int
	TimingDelayBase          time.Duration
	TimingDelayRandom        time.Duration
	TimingDelayOnSuccess     bool
}

// BootstrapConfig holds the credentials of the initial administrator.
// AdminPassword has no default; an empty value skips admin seeding.
type BootstrapConfig struct {
	AdminLogin    string
	AdminPassword string
}

type BackupConfig struct {
	Enabled       bool
	Dir           string
	Interval      time.Duration
	CheckInterval time.Duration
	Retention     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Path:             getEnv("DB_PATH", "vacina.db"),
			LegacyPath:       getEnv("LEGACY_DB_PATH", "vacina_legacy.db"),
			BusyTimeout:      getEnvAsDuration("DB_BUSY_TIMEOUT", 30*time.Second),
			CacheSizeKiB:     getEnvAsInt("DB_CACHE_SIZE_KIB", 20000),
			MmapSize:         getEnvAsInt64("DB_MMAP_SIZE", 30000000),
			MaxWriteAttempts: getEnvAsInt("DB_MAX_WRITE_ATTEMPTS", 6),
			BaseBackoff:      getEnvAsDuration("DB_BASE_BACKOFF", 80*time.Millisecond),
			QueryCacheTTL:    getEnvAsDuration("QUERY_CACHE_TTL", 60*time.Second),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:                jwtSecret,
			AccessTokenExpiry:        getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 8*time.Hour),
			IPMaxFailedAttempts:      getEnvAsInt("IP_MAX_FAILED_ATTEMPTS", 5),
			IPThrottleWindow:         getEnvAsDuration("IP_THROTTLE_WINDOW", 15*time.Minute),
			AccountMaxFailedAttempts: getEnvAsInt("ACCOUNT_MAX_FAILED_ATTEMPTS", 10),
			AccountLockoutWindow:     getEnvAsDuration("ACCOUNT_LOCKOUT_WINDOW", 15*time.Minute),
			BcryptCost:               getEnvAsInt("BCRYPT_COST", 12),
			CleanupInterval:          getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			LoginRequestsPerMinute:   getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 30),
			WriteRequestsPerMinute:   getEnvAsInt("WRITE_REQUESTS_PER_MINUTE", 120),
			TimingDelayBase:          getEnvAsDuration("TIMING_DELAY_BASE", 300*time.Millisecond),
			TimingDelayRandom:        getEnvAsDuration("TIMING_DELAY_RANDOM", 100*time.Millisecond),
			TimingDelayOnSuccess:     getEnvAsBool("TIMING_DELAY_ON_SUCCESS", false),
		},
		Bootstrap: BootstrapConfig{
			AdminLogin:    getEnv("ADMIN_LOGIN", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Backup: BackupConfig{
			Enabled:       getEnvAsBool("BACKUP_ENABLED", false),
			Dir:           getEnv("BACKUP_DIR", "backups"),
			Interval:      getEnvAsDuration("BACKUP_INTERVAL", 24*time.Hour),
			CheckInterval: getEnvAsDuration("BACKUP_CHECK_INTERVAL", 1*time.Minute),
			Retention:     getEnvAsDuration("BACKUP_RETENTION", 30*24*time.Hour),
		},
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Database.MaxWriteAttempts < 1 {
		return nil, fmt.Errorf("DB_MAX_WRITE_ATTEMPTS must be at least 1 (got %d)", cfg.Database.MaxWriteAttempts)
	}

	positive := []struct {
		key   string
		value time.Duration
	}{
		{"IP_THROTTLE_WINDOW", cfg.Auth.IPThrottleWindow},
		{"ACCOUNT_LOCKOUT_WINDOW", cfg.Auth.AccountLockoutWindow},
		{"ACCESS_TOKEN_EXPIRY", cfg.Auth.AccessTokenExpiry},
		{"CLEANUP_INTERVAL", cfg.Auth.CleanupInterval},
		{"BACKUP_INTERVAL", cfg.Backup.Interval},
		{"BACKUP_CHECK_INTERVAL", cfg.Backup.CheckInterval},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return nil, fmt.Errorf("%s must be positive (got %v)", p.key, p.value)
		}
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN builds the go-sqlite3 connection string. Connection-level pragmas are
// passed as DSN parameters so every pooled connection gets them.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=%d&_cache_size=-%d",
		c.Path, c.BusyTimeout.Milliseconds(), c.CacheSizeKiB,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
