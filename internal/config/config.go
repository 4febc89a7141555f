package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Storage drivers
const (
	DriverSurrealDB = "surrealdb"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

const redacted = "********"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `toml:"server" envPrefix:"SERVER_"`
	Log       LogConfig       `toml:"log" envPrefix:"LOG_"`
	Storage   StorageConfig   `toml:"storage" envPrefix:"STORAGE_"`
	JWT       JWTConfig       `toml:"jwt" envPrefix:"JWT_"`
	RateLimit RateLimitConfig `toml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Jobs      JobsConfig      `toml:"jobs" envPrefix:"JOBS_"`
	Domain    DomainConfig    `toml:"domain" envPrefix:"DOMAIN_"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `toml:"port" env:"PORT"`
	Env             string        `toml:"env" env:"ENV"`
	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level     string `toml:"level" env:"LEVEL"`
	Format    string `toml:"format" env:"FORMAT"`
	AddSource bool   `toml:"add_source" env:"ADD_SOURCE"`
}

// StorageConfig selects the aggregate store and its connection settings
type StorageConfig struct {
	Driver    string          `toml:"driver" env:"DRIVER"`
	SurrealDB SurrealDBConfig `toml:"surrealdb" envPrefix:"SURREALDB_"`
	SQL       SQLConfig       `toml:"sql" envPrefix:"SQL_"`
}

// SurrealDBConfig holds SurrealDB connection settings
type SurrealDBConfig struct {
	Host      string `toml:"host" env:"HOST"`
	Port      string `toml:"port" env:"PORT"`
	Namespace string `toml:"namespace" env:"NAMESPACE"`
	Database  string `toml:"database" env:"DATABASE"`
	User      string `toml:"user" env:"USER"`
	Password  string `toml:"password" env:"PASSWORD"`
}

// SQLConfig holds settings shared by the sqlite and postgres drivers
type SQLConfig struct {
	DSN             string        `toml:"dsn" env:"DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// JWTConfig holds JWT signing settings
type JWTConfig struct {
	PrivateKeyPath string `toml:"private_key_path" env:"PRIVATE_KEY_PATH"`
	PublicKeyPath  string `toml:"public_key_path" env:"PUBLIC_KEY_PATH"`
	ExpirationMins int    `toml:"expiration_mins" env:"EXPIRATION_MINS"`
	Issuer         string `toml:"issuer" env:"ISSUER"`
	PasswordCost   int    `toml:"password_cost" env:"PASSWORD_COST"`
}

// RateLimitConfig holds the per-caller request allowance
type RateLimitConfig struct {
	Enabled bool          `toml:"enabled" env:"ENABLED"`
	Rate    int           `toml:"rate" env:"RATE"`
	Window  time.Duration `toml:"window" env:"WINDOW"`
	Burst   int           `toml:"burst" env:"BURST"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	RepairEnabled  bool          `toml:"repair_enabled" env:"REPAIR_ENABLED"`
	RepairInterval time.Duration `toml:"repair_interval" env:"REPAIR_INTERVAL"`
	RepairBatch    int           `toml:"repair_batch" env:"REPAIR_BATCH"`
}

// DomainConfig holds campus-wide settings
type DomainConfig struct {
	// Location is the IANA zone event dates and times are written in
	Location string `toml:"location" env:"LOCATION"`
}

// Default returns the configuration used when no file or environment overrides it
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			Env:             "development",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			SurrealDB: SurrealDBConfig{
				Host:      "localhost",
				Port:      "8000",
				Namespace: "campus",
				Database:  "main",
				User:      "root",
				Password:  "root",
			},
			SQL: SQLConfig{
				DSN:             "file:campusconnect.db",
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		JWT: JWTConfig{
			PrivateKeyPath: "./keys/private.pem",
			PublicKeyPath:  "./keys/public.pem",
			ExpirationMins: 60,
			Issuer:         "campusconnect",
			PasswordCost:   12,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Rate:    100,
			Window:  time.Minute,
			Burst:   20,
		},
		Jobs: JobsConfig{
			RepairEnabled:  true,
			RepairInterval: time.Hour,
			RepairBatch:    200,
		},
		Domain: DomainConfig{
			Location: "UTC",
		},
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to open config file: %w", err)
		}
		defer func() {
			_ = file.Close()
		}()

		if _, err = toml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel parses the configured level, defaulting to info
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Zone loads the configured location
func (c DomainConfig) Zone() (*time.Location, error) {
	return time.LoadLocation(c.Location)
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c Config) Validate() error {
	var errs []error

	// Server
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("SERVER_ALLOWED_ORIGINS must have at least one origin"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive"))
	}

	// Log
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL is invalid: %q", c.Log.Level))
	}
	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatText {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got '%s'", c.Log.Format))
	}

	// Storage
	switch c.Storage.Driver {
	case DriverSurrealDB:
		if c.Storage.SurrealDB.Host == "" {
			errs = append(errs, errors.New("STORAGE_SURREALDB_HOST is required"))
		}
		if c.Storage.SurrealDB.Port == "" {
			errs = append(errs, errors.New("STORAGE_SURREALDB_PORT is required"))
		}
		if c.Storage.SurrealDB.Namespace == "" {
			errs = append(errs, errors.New("STORAGE_SURREALDB_NAMESPACE is required"))
		}
		if c.Storage.SurrealDB.Database == "" {
			errs = append(errs, errors.New("STORAGE_SURREALDB_DATABASE is required"))
		}
	case DriverSQLite, DriverPostgres:
		if c.Storage.SQL.DSN == "" {
			errs = append(errs, errors.New("STORAGE_SQL_DSN is required"))
		}
		if c.Storage.SQL.MaxOpenConns < 0 {
			errs = append(errs, errors.New("STORAGE_SQL_MAX_OPEN_CONNS must not be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 'surrealdb', 'sqlite', or 'postgres', got '%s'", c.Storage.Driver))
	}

	// JWT, key paths are critical for production
	if c.IsProduction() {
		if c.JWT.PrivateKeyPath == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY_PATH is required in production"))
		}
		if c.JWT.PublicKeyPath == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY_PATH is required in production"))
		}
	}
	if c.JWT.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.JWT.PasswordCost < 4 || c.JWT.PasswordCost > 31 {
		errs = append(errs, fmt.Errorf("JWT_PASSWORD_COST must be between 4 and 31, got %d", c.JWT.PasswordCost))
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
		if c.RateLimit.Burst <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
		}
	}

	// Jobs
	if c.Jobs.RepairEnabled {
		if c.Jobs.RepairInterval < time.Minute {
			errs = append(errs, errors.New("JOBS_REPAIR_INTERVAL must be at least one minute"))
		}
		if c.Jobs.RepairBatch <= 0 {
			errs = append(errs, errors.New("JOBS_REPAIR_BATCH must be positive"))
		}
	}

	// Domain
	if _, err := c.Domain.Zone(); err != nil {
		errs = append(errs, fmt.Errorf("DOMAIN_LOCATION is invalid: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// String renders the configuration for startup logs with secrets redacted
func (c Config) String() string {
	return fmt.Sprintf("Server: %s\nLog: %s\nStorage: %s\nJWT: %s\nRateLimit: %s\nJobs: %s\nDomain: %s",
		c.Server,
		c.Log,
		c.Storage,
		c.JWT,
		c.RateLimit,
		c.Jobs,
		c.Domain,
	)
}

func (c ServerConfig) String() string {
	return fmt.Sprintf("\n Port: %s\n Env: %s\n ReadTimeout: %s\n WriteTimeout: %s\n ShutdownTimeout: %s\n AllowedOrigins: %s",
		c.Port,
		c.Env,
		c.ReadTimeout,
		c.WriteTimeout,
		c.ShutdownTimeout,
		strings.Join(c.AllowedOrigins, ", "),
	)
}

func (c LogConfig) String() string {
	return fmt.Sprintf("\n Level: %s\n Format: %s\n AddSource: %t",
		c.Level,
		c.Format,
		c.AddSource,
	)
}

func (c StorageConfig) String() string {
	switch c.Driver {
	case DriverSurrealDB:
		return fmt.Sprintf("\n Driver: %s\n Host: %s\n Port: %s\n Namespace: %s\n Database: %s\n User: %s\n Password: %s",
			c.Driver,
			c.SurrealDB.Host,
			c.SurrealDB.Port,
			c.SurrealDB.Namespace,
			c.SurrealDB.Database,
			c.SurrealDB.User,
			redacted,
		)
	default:
		return fmt.Sprintf("\n Driver: %s\n DSN: %s\n MaxOpenConns: %d\n ConnMaxLifetime: %s",
			c.Driver,
			redactDSN(c.SQL.DSN),
			c.SQL.MaxOpenConns,
			c.SQL.ConnMaxLifetime,
		)
	}
}

func (c JWTConfig) String() string {
	return fmt.Sprintf("\n PrivateKeyPath: %s\n PublicKeyPath: %s\n ExpirationMins: %d\n Issuer: %s\n PasswordCost: %d",
		c.PrivateKeyPath,
		c.PublicKeyPath,
		c.ExpirationMins,
		c.Issuer,
		c.PasswordCost,
	)
}

func (c RateLimitConfig) String() string {
	return fmt.Sprintf("\n Enabled: %t\n Rate: %d\n Window: %s\n Burst: %d",
		c.Enabled,
		c.Rate,
		c.Window,
		c.Burst,
	)
}

func (c JobsConfig) String() string {
	return fmt.Sprintf("\n RepairEnabled: %t\n RepairInterval: %s\n RepairBatch: %d",
		c.RepairEnabled,
		c.RepairInterval,
		c.RepairBatch,
	)
}

func (c DomainConfig) String() string {
	return fmt.Sprintf("\n Location: %s", c.Location)
}

// redactDSN hides the password of a URL-style or key=value DSN
func redactDSN(dsn string) string {
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		creds, host, ok := strings.Cut(rest, "@")
		if !ok {
			return dsn
		}
		user, _, hasPassword := strings.Cut(creds, ":")
		if !hasPassword {
			return dsn
		}
		return scheme + "://" + user + ":" + redacted + "@" + host
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=" + redacted
		}
	}
	return strings.Join(fields, " ")
}
