package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/joshdurbin/shortlinks/internal/logger"
	"github.com/joshdurbin/shortlinks/internal/shortener"
)

// EnvPrefix prefixes every environment variable the server reads
const EnvPrefix = "SHORTLINKS_"

// Supported database drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Links     LinksConfig
	Logging   LoggingConfig
	Notify    NotifyConfig
	Shortener shortener.Config
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port          string
	PublicBaseURL string // used to render short URLs only
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver string
	DSN    string // file path for sqlite3, connection string for postgres
}

// LinksConfig holds the link lifecycle settings
type LinksConfig struct {
	TTL            time.Duration
	ReaperInterval time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level   string
	Format  string
	Verbose bool // log every HTTP request
}

// NotifyConfig holds the notification fan-out settings; empty values disable a publisher
type NotifyConfig struct {
	NATSURL      string
	NATSEmbedded bool
	NATSPort     int
	RedisAddr    string
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "shortlinks.db",
		},
		Links: LinksConfig{
			TTL:            24 * time.Hour,
			ReaperInterval: 600 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Notify: NotifyConfig{
			NATSPort: 4222,
		},
		Shortener: shortener.DefaultConfig(),
	}
}

// LoadEnv reads the given .env files (".env" when none are given) into the
// process environment and then applies SHORTLINKS_* variables to cfg.
// Missing files are skipped; variables already set in the environment win.
func LoadEnv(cfg *Config, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	e := &envReader{}
	e.str("PORT", &cfg.Server.Port)
	e.str("BASE_URL", &cfg.Server.PublicBaseURL)
	e.str("DB_DRIVER", &cfg.Database.Driver)
	e.str("DB_DSN", &cfg.Database.DSN)
	e.hours("TTL_HOURS", &cfg.Links.TTL)
	e.seconds("REAPER_INTERVAL_SECONDS", &cfg.Links.ReaperInterval)
	e.str("LOG_LEVEL", &cfg.Logging.Level)
	e.str("LOG_FORMAT", &cfg.Logging.Format)
	e.boolean("VERBOSE", &cfg.Logging.Verbose)
	e.str("NATS_URL", &cfg.Notify.NATSURL)
	e.boolean("NATS_EMBEDDED", &cfg.Notify.NATSEmbedded)
	e.integer("NATS_PORT", &cfg.Notify.NATSPort)
	e.str("REDIS_ADDR", &cfg.Notify.RedisAddr)
	e.integer("CODE_LENGTH", &cfg.Shortener.Length)
	e.str("CODE_ALPHABET", &cfg.Shortener.Alphabet)
	e.integer("CODE_MAX_ATTEMPTS", &cfg.Shortener.MaxAttempts)
	return e.err
}

// envReader collects the first parse error so callers can read many keys in a row
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	value, ok := os.LookupEnv(EnvPrefix + key)
	return strings.TrimSpace(value), ok
}

func (e *envReader) fail(key, value string, err error) {
	e.err = fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, value, err)
}

func (e *envReader) str(key string, dst *string) {
	if value, ok := e.lookup(key); ok {
		*dst = value
	}
}

func (e *envReader) integer(key string, dst *int) {
	value, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = n
}

func (e *envReader) boolean(key string, dst *bool) {
	value, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = b
}

func (e *envReader) hours(key string, dst *time.Duration) {
	var n int
	e.integer(key, &n)
	if _, ok := e.lookup(key); ok {
		*dst = time.Duration(n) * time.Hour
	}
}

func (e *envReader) seconds(key string, dst *time.Duration) {
	var n int
	e.integer(key, &n)
	if _, ok := e.lookup(key); ok {
		*dst = time.Duration(n) * time.Second
	}
}

// BindFlags registers server flags on fs with cfg's current values as defaults
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringP("port", "p", cfg.Server.Port, "Server port")
	fs.String("base-url", cfg.Server.PublicBaseURL, "Public base URL used to render short links")
	fs.String("db-driver", cfg.Database.Driver, "Storage driver: memory, sqlite3 or postgres")
	fs.String("db-dsn", cfg.Database.DSN, "SQLite file path or PostgreSQL connection string")
	fs.Int("ttl-hours", int(cfg.Links.TTL/time.Hour), "Link lifetime in hours")
	fs.Int("reaper-interval-seconds", int(cfg.Links.ReaperInterval/time.Second), "Seconds between expired link sweeps")
	fs.Int("code-length", cfg.Shortener.Length, "Short code length")
	fs.String("code-alphabet", cfg.Shortener.Alphabet, "Short code alphabet")
	fs.Int("code-max-attempts", cfg.Shortener.MaxAttempts, "Draws allowed per short code allocation")
	fs.String("log-level", cfg.Logging.Level, "Log level: debug, info, warn or error")
	fs.String("log-format", cfg.Logging.Format, "Log format: text or json")
	fs.BoolP("verbose", "v", cfg.Logging.Verbose, "Log every HTTP request")
	fs.String("nats-url", cfg.Notify.NATSURL, "NATS server to publish notifications to")
	fs.Bool("nats-embedded", cfg.Notify.NATSEmbedded, "Run an in-process NATS server and publish to it")
	fs.Int("nats-port", cfg.Notify.NATSPort, "Port for the embedded NATS server")
	fs.String("redis-addr", cfg.Notify.RedisAddr, "Redis address to publish notifications to")
}

// ApplyFlags copies explicitly set flags from fs onto cfg, so flags override env and files
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = applyFlag(fs, f.Name, cfg)
	})
	return err
}

func applyFlag(fs *pflag.FlagSet, name string, cfg *Config) error {
	var err error
	switch name {
	case "port":
		cfg.Server.Port, err = fs.GetString(name)
	case "base-url":
		cfg.Server.PublicBaseURL, err = fs.GetString(name)
	case "db-driver":
		cfg.Database.Driver, err = fs.GetString(name)
	case "db-dsn":
		cfg.Database.DSN, err = fs.GetString(name)
	case "ttl-hours":
		var n int
		n, err = fs.GetInt(name)
		cfg.Links.TTL = time.Duration(n) * time.Hour
	case "reaper-interval-seconds":
		var n int
		n, err = fs.GetInt(name)
		cfg.Links.ReaperInterval = time.Duration(n) * time.Second
	case "code-length":
		cfg.Shortener.Length, err = fs.GetInt(name)
	case "code-alphabet":
		cfg.Shortener.Alphabet, err = fs.GetString(name)
	case "code-max-attempts":
		cfg.Shortener.MaxAttempts, err = fs.GetInt(name)
	case "log-level":
		cfg.Logging.Level, err = fs.GetString(name)
	case "log-format":
		cfg.Logging.Format, err = fs.GetString(name)
	case "verbose":
		cfg.Logging.Verbose, err = fs.GetBool(name)
	case "nats-url":
		cfg.Notify.NATSURL, err = fs.GetString(name)
	case "nats-embedded":
		cfg.Notify.NATSEmbedded, err = fs.GetBool(name)
	case "nats-port":
		cfg.Notify.NATSPort, err = fs.GetInt(name)
	case "redis-addr":
		cfg.Notify.RedisAddr, err = fs.GetString(name)
	}
	if err != nil {
		return fmt.Errorf("failed to read flag --%s: %w", name, err)
	}
	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("public base URL cannot be empty")
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN cannot be empty for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	if c.Links.TTL <= 0 {
		return fmt.Errorf("link TTL must be positive, got: %v", c.Links.TTL)
	}

	if c.Links.ReaperInterval <= 0 {
		return fmt.Errorf("reaper interval must be positive, got: %v", c.Links.ReaperInterval)
	}

	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}

	if c.Notify.NATSEmbedded && c.Notify.NATSURL != "" {
		return fmt.Errorf("nats URL and embedded NATS are mutually exclusive")
	}

	if err := c.Shortener.Validate(); err != nil {
		return fmt.Errorf("invalid shortener config: %w", err)
	}

	return nil
}
