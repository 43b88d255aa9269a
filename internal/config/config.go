package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Contracts    ContractConfig
	Backup       BackupConfig
	Documents    DocumentConfig
	Jobs         JobsConfig
	Telemetry    TelemetryConfig
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

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	SalaryCacheTTL time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	SessionCookieName       string
	BootstrapAdminEmail     string
	BootstrapAdminPassword  string
}

// RateLimitConfig throttles login attempts per client address.
type RateLimitConfig struct {
	LoginBurst         int
	LoginRefillSeconds int
}

// NotificationConfig holds email delivery settings.
type NotificationConfig struct {
	EmailFrom    string
	ResendAPIKey string
	AdminEmails  []string
}

// ContractConfig carries the agency's contract terms.
type ContractConfig struct {
	ClientPenaltyPercent int
	ProbationDays        int
	ExpiringWindowDays   int
	ArchiveAfterDays     int
}

// BackupConfig controls database dumps.
type BackupConfig struct {
	Dir             string
	RetentionDays   int
	ScheduleEnabled bool
}

// DocumentConfig holds the letterhead printed on generated documents.
type DocumentConfig struct {
	AgencyName    string
	AgencyAddress string
	AgencyPhone   string
	AgencyLicense string
}

// JobsConfig toggles background job processing.
type JobsConfig struct {
	Enabled    bool
	MaxWorkers int
}

// TelemetryConfig selects a trace exporter.
type TelemetryConfig struct {
	Exporter     string
	OTLPEndpoint string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "recruitment-office"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			SalaryCacheTTL: time.Duration(getEnvAsInt("REDIS_SALARY_CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SessionCookieName:       getEnv("AUTH_SESSION_COOKIE", "session"),
			BootstrapAdminEmail:     os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapAdminPassword:  os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
		},
		RateLimit: RateLimitConfig{
			LoginBurst:         getEnvAsInt("RATE_LIMIT_LOGIN_BURST", 5),
			LoginRefillSeconds: getEnvAsInt("RATE_LIMIT_LOGIN_REFILL_SECONDS", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			AdminEmails:  splitList(os.Getenv("NOTIFY_ADMIN_EMAILS")),
		},
		Contracts: ContractConfig{
			ClientPenaltyPercent: getEnvAsInt("CONTRACT_CLIENT_PENALTY_PERCENT", 25),
			ProbationDays:        getEnvAsInt("CONTRACT_PROBATION_DAYS", 90),
			ExpiringWindowDays:   getEnvAsInt("CONTRACT_EXPIRING_WINDOW_DAYS", 30),
			ArchiveAfterDays:     getEnvAsInt("ARCHIVE_AFTER_DAYS", 0),
		},
		Backup: BackupConfig{
			Dir:             getEnv("BACKUP_DIR", "./backups"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 14),
			ScheduleEnabled: getEnvAsBool("BACKUP_SCHEDULE_ENABLED", false),
		},
		Documents: DocumentConfig{
			AgencyName:    getEnv("AGENCY_NAME", "Recruitment Office"),
			AgencyAddress: getEnv("AGENCY_ADDRESS", ""),
			AgencyPhone:   getEnv("AGENCY_PHONE", ""),
			AgencyLicense: getEnv("AGENCY_LICENSE", ""),
		},
		Jobs: JobsConfig{
			Enabled:    getEnvAsBool("JOBS_ENABLED", true),
			MaxWorkers: getEnvAsInt("JOBS_MAX_WORKERS", 4),
		},
		Telemetry: TelemetryConfig{
			Exporter:     getEnv("OTEL_EXPORTER", "none"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.Contracts.ClientPenaltyPercent < 0 || c.Contracts.ClientPenaltyPercent > 100 {
		errs = append(errs, errors.New("CONTRACT_CLIENT_PENALTY_PERCENT must be between 0 and 100"))
	}
	if c.Contracts.ProbationDays < 0 {
		errs = append(errs, errors.New("CONTRACT_PROBATION_DAYS must not be negative"))
	}
	if c.Backup.RetentionDays <= 0 {
		errs = append(errs, errors.New("BACKUP_RETENTION_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
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

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
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

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
