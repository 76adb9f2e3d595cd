package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Database      DatabaseConfig      `yaml:"database" envconfig:"DB"`
	SMTP          SMTPConfig          `yaml:"smtp" envconfig:"SMTP"`
	JWT           JWTConfig           `yaml:"jwt" envconfig:"JWT"`
	Storage       StorageConfig       `yaml:"storage" envconfig:"STORAGE"`
	Log           LogConfig           `yaml:"log" envconfig:"LOG"`
	Pool          PoolConfig          `yaml:"pool" envconfig:"POOL"`
	Notifications NotificationsConfig `yaml:"notifications" envconfig:"NOTIFICATIONS"`
	Scheduler     SchedulerConfig     `yaml:"scheduler" envconfig:"SCHEDULER"`
	Metrics       MetricsConfig       `yaml:"metrics" envconfig:"METRICS"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host                string `yaml:"host" split_words:"true"`
	Port                int    `yaml:"port" split_words:"true"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" split_words:"true"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" split_words:"true"`
	AuthRatePerMinute   int    `yaml:"auth_rate_per_minute" split_words:"true"`
	TLS                 bool   `yaml:"tls" split_words:"true"` // enables HSTS and https redirects
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host" split_words:"true"`
	Port         int    `yaml:"port" split_words:"true"`
	User         string `yaml:"user" split_words:"true"`
	Password     string `yaml:"password" split_words:"true"`
	Database     string `yaml:"database" split_words:"true"`
	SSLMode      string `yaml:"ssl_mode" split_words:"true"`
	MaxOpenConns int    `yaml:"max_open_conns" split_words:"true"`
	AutoMigrate  bool   `yaml:"auto_migrate" split_words:"true"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Provider       string `yaml:"provider" split_words:"true"` // "smtp", "sendgrid" or "log"
	Host           string `yaml:"host" split_words:"true"`
	Port           int    `yaml:"port" split_words:"true"`
	User           string `yaml:"user" split_words:"true"`
	Password       string `yaml:"password" split_words:"true"`
	From           string `yaml:"from" split_words:"true"`
	FromName       string `yaml:"from_name" split_words:"true"`
	SendGridAPIKey string `yaml:"sendgrid_api_key" split_words:"true"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret" split_words:"true"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes" split_words:"true"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes" split_words:"true"`
}

// StorageConfig contains proof-of-payment storage settings
type StorageConfig struct {
	Type                string   `yaml:"type" split_words:"true"`       // only "mock" is built in
	UploadDir           string   `yaml:"upload_dir" split_words:"true"` // For mock storage
	BaseURL             string   `yaml:"base_url" split_words:"true"`   // Server base URL for mock URLs
	MaxFileSize         int64    `yaml:"max_file_size_mb" split_words:"true"`
	AllowedTypes        []string `yaml:"allowed_types" split_words:"true"`
	PresignedExpiryMins int      `yaml:"presigned_expiry_minutes" split_words:"true"`
	SigningKey          string   `yaml:"signing_key" split_words:"true"` // defaults to the JWT secret
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format" split_words:"true"` // "json" or "text"
}

// PoolConfig holds the seed values for the system settings row and the
// timezone in which months and penalty boundaries are evaluated.
type PoolConfig struct {
	MinDepositAmount       int64  `yaml:"min_deposit_amount" split_words:"true"`
	PenaltyRatePerThousand int64  `yaml:"penalty_rate_per_thousand" split_words:"true"`
	PenaltyStartDay        int    `yaml:"penalty_start_day" split_words:"true"`
	Timezone               string `yaml:"timezone" split_words:"true"`
}

// NotificationsConfig selects how approval notifications are delivered
type NotificationsConfig struct {
	Mode                string `yaml:"mode" split_words:"true"` // "inline" or "queue"
	RedisAddr           string `yaml:"redis_addr" split_words:"true"`
	RedisPassword       string `yaml:"redis_password" split_words:"true"`
	RedisDB             int    `yaml:"redis_db" split_words:"true"`
	WorkerConcurrency   int    `yaml:"worker_concurrency" split_words:"true"`
	FirebaseCredentials string `yaml:"firebase_credentials" split_words:"true"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MarkMissedMonths     string `yaml:"mark_missed_months" split_words:"true"`
	SendDepositReminders string `yaml:"send_deposit_reminders" split_words:"true"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

// Load reads configuration from a YAML file, then applies a .env file
// (if present) and the process environment on top of it.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// overrideWithEnv overrides config values with environment variables named
// <SECTION>_<FIELD>, e.g. DB_HOST, SMTP_PASSWORD, JWT_SECRET,
// POOL_PENALTY_START_DAY.
func (c *Config) overrideWithEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.AuthRatePerMinute == 0 {
		c.Server.AuthRatePerMinute = 20
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Email validation
	if c.SMTP.Provider == "" {
		c.SMTP.Provider = "smtp"
	}
	switch c.SMTP.Provider {
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	case "sendgrid":
		if c.SMTP.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required")
		}
	case "log":
	default:
		return fmt.Errorf("unknown email provider: %s", c.SMTP.Provider)
	}
	if c.SMTP.FromName == "" {
		c.SMTP.FromName = "Money Pool"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	// Storage validation
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	}
	if c.Storage.PresignedExpiryMins == 0 {
		c.Storage.PresignedExpiryMins = 15
	}
	if c.Storage.SigningKey == "" {
		c.Storage.SigningKey = c.JWT.Secret
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Pool defaults
	if c.Pool.MinDepositAmount == 0 {
		c.Pool.MinDepositAmount = 1000
	}
	if c.Pool.PenaltyRatePerThousand == 0 {
		c.Pool.PenaltyRatePerThousand = 30
	}
	if c.Pool.PenaltyStartDay == 0 {
		c.Pool.PenaltyStartDay = 16
	}
	if c.Pool.PenaltyStartDay < 1 || c.Pool.PenaltyStartDay > 28 {
		return fmt.Errorf("penalty start day must be between 1 and 28")
	}
	if c.Pool.MinDepositAmount < 0 || c.Pool.PenaltyRatePerThousand < 0 {
		return fmt.Errorf("pool amounts must not be negative")
	}
	if c.Pool.Timezone == "" {
		c.Pool.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.Pool.Timezone); err != nil {
		return fmt.Errorf("invalid pool timezone %q: %w", c.Pool.Timezone, err)
	}

	// Notification defaults
	c.Notifications.Mode = strings.ToLower(c.Notifications.Mode)
	if c.Notifications.Mode == "" {
		c.Notifications.Mode = "inline"
	}
	switch c.Notifications.Mode {
	case "inline":
	case "queue":
		if c.Notifications.RedisAddr == "" {
			return fmt.Errorf("redis address is required for queued notifications")
		}
	default:
		return fmt.Errorf("unknown notifications mode: %s", c.Notifications.Mode)
	}
	if c.Notifications.WorkerConcurrency == 0 {
		c.Notifications.WorkerConcurrency = 5
	}

	// Scheduler defaults
	if c.Scheduler.MarkMissedMonths == "" {
		c.Scheduler.MarkMissedMonths = "0 10 0 1 * *" // 1st of month at 00:10
	}
	if c.Scheduler.SendDepositReminders == "" {
		// daily; the job itself picks the day before penalties start
		c.Scheduler.SendDepositReminders = "0 0 9 * * *"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	return nil
}

// Location returns the pool timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Pool.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
