// Package config loads sharebox settings: built-in defaults, then an
// optional YAML file, then SHAREBOX_* environment variables. The result
// is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/koustreak/sharebox/internal/database"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/filestore"
	"github.com/koustreak/sharebox/internal/logger"
	"github.com/koustreak/sharebox/internal/session"
	"go.yaml.in/yaml/v3"
)

// DefaultPath is read when no -config flag is given. A missing file at
// this path is not an error.
const DefaultPath = "sharebox.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Session  SessionConfig  `yaml:"session" envPrefix:"SESSION_"`
}

// ServerConfig tunes the HTTP server. ReadTimeout and WriteTimeout span
// the whole request, upload body included, and default to off;
// ReadHeaderTimeout only bounds the request headers.
type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DRIVER"`
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"sslmode" env:"SSLMODE"`
	MaxConns        int32         `yaml:"max_conns" env:"MAX_CONNS"`
	MinConns        int32         `yaml:"min_conns" env:"MIN_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
}

type StorageConfig struct {
	Provider  string `yaml:"provider" env:"PROVIDER"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Region    string `yaml:"region" env:"REGION"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
	PathStyle bool   `yaml:"path_style" env:"PATH_STYLE"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret" env:"SECRET"`
	CookieName string        `yaml:"cookie_name" env:"COOKIE_NAME"`
	MaxAge     time.Duration `yaml:"max_age" env:"MAX_AGE"`
	Secure     bool          `yaml:"secure" env:"SECURE"`
}

// Default returns the settings used for anything the file and
// environment leave unset. Secrets and names have no default.
func Default() *Config {
	db := database.DefaultConfig(database.DriverMySQL)
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxUploadBytes:    100 << 20,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{
			Driver:          string(database.DriverMySQL),
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			ConnMaxLifetime: db.MaxConnLifetime,
			ConnMaxIdleTime: db.MaxConnIdleTime,
			ConnectTimeout:  db.ConnectTimeout,
		},
		Storage: StorageConfig{
			Provider: string(filestore.ProviderMinIO),
			Region:   "us-east-1",
		},
		Session: SessionConfig{
			CookieName: session.DefaultCookieName,
			MaxAge:     session.DefaultMaxAge,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(nil); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			return nil
		}
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file "+path, err)
	}
	return nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch database.Driver(c.Database.Driver) {
	case database.DriverMySQL, database.DriverPostgres:
	default:
		add("database.driver must be mysql or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Host == "" {
		add("database.host is required")
	}
	if c.Database.Name == "" {
		add("database.name is required")
	}
	if c.Database.User == "" {
		add("database.user is required")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		add("database.min_conns (%d) exceeds database.max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}

	switch filestore.Provider(c.Storage.Provider) {
	case filestore.ProviderMinIO:
		if c.Storage.Endpoint == "" {
			add("storage.endpoint is required for the minio provider")
		}
	case filestore.ProviderS3, filestore.ProviderMemory:
	default:
		add("storage.provider must be minio, s3 or memory, got %q", c.Storage.Provider)
	}
	if c.Storage.Bucket == "" {
		add("storage.bucket is required")
	}
	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		add("storage.access_key and storage.secret_key must be set together")
	}

	if len(c.Session.Secret) < session.MinSecretLen {
		add("session.secret must be at least %d bytes", session.MinSecretLen)
	}

	if c.Server.MaxUploadBytes <= 0 {
		add("server.max_upload_bytes must be positive")
	}

	if len(problems) > 0 {
		return errs.New(errs.ErrKindInvalidInput, "invalid config: "+strings.Join(problems, "; "))
	}
	return nil
}

// DatabaseConfig converts the database section for the drivers.
func (c *Config) DatabaseConfig() *database.Config {
	return &database.Config{
		Driver:          database.Driver(c.Database.Driver),
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: c.Database.ConnMaxLifetime,
		MaxConnIdleTime: c.Database.ConnMaxIdleTime,
		ConnectTimeout:  c.Database.ConnectTimeout,
	}
}

// StorageConfig converts the storage section for the providers.
func (c *Config) StorageConfig() *filestore.Config {
	return &filestore.Config{
		Provider:  filestore.Provider(c.Storage.Provider),
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		UseSSL:    c.Storage.UseSSL,
		Region:    c.Storage.Region,
		Bucket:    c.Storage.Bucket,
		PathStyle: c.Storage.PathStyle,
	}
}

func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Secret:     []byte(c.Session.Secret),
		CookieName: c.Session.CookieName,
		MaxAge:     c.Session.MaxAge,
		Secure:     c.Session.Secure,
	}
}

func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}
