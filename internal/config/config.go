package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of every environment variable read by the service.
	EnvPrefix = "BOOKSHELF"

	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit    string            `yaml:"git_commit" envconfig:"BOOKSHELF_GIT_COMMIT"`
	GitTag       string            `yaml:"git_tag" envconfig:"BOOKSHELF_GIT_TAG"`
	BuildTime    string            `yaml:"build_time" envconfig:"BOOKSHELF_BUILD_TIME"`
	IsProduction bool              `yaml:"is_production" envconfig:"BOOKSHELF_IS_PRODUCTION"`
	LogLevel     zapcore.Level     `yaml:"log_level" envconfig:"BOOKSHELF_LOG_LEVEL"`
	LogFile      string            `yaml:"log_file" envconfig:"BOOKSHELF_LOG_FILE"`
	Server       ServerConfig      `yaml:"server"`
	Database     DatabaseConfig    `yaml:"database"`
	OpenLibrary  OpenLibraryConfig `yaml:"openlibrary"`
	Pagination   PaginationConfig  `yaml:"pagination"`
	Telemetry    TelemetryConfig   `yaml:"telemetry"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BOOKSHELF_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BOOKSHELF_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BOOKSHELF_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BOOKSHELF_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BOOKSHELF_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BOOKSHELF_SERVER_SHUTDOWN_TIMEOUT"`
	AllowedOrigin   string        `yaml:"allowed_origin" envconfig:"BOOKSHELF_SERVER_ALLOWED_ORIGIN"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" envconfig:"BOOKSHELF_DATABASE_DRIVER"`
	DSN             string        `yaml:"dsn" envconfig:"BOOKSHELF_DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"BOOKSHELF_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"BOOKSHELF_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"BOOKSHELF_DATABASE_CONN_MAX_LIFETIME"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" envconfig:"BOOKSHELF_DATABASE_CONNECT_TIMEOUT"`
	AutoMigrate     bool          `yaml:"auto_migrate" envconfig:"BOOKSHELF_DATABASE_AUTO_MIGRATE"`
}

type OpenLibraryConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"BOOKSHELF_OPENLIBRARY_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"BOOKSHELF_OPENLIBRARY_TIMEOUT"`
	// RateLimit is the number of outbound lookups allowed per second. Zero disables limiting.
	RateLimit    float64       `yaml:"rate_limit" envconfig:"BOOKSHELF_OPENLIBRARY_RATE_LIMIT"`
	Burst        int           `yaml:"burst" envconfig:"BOOKSHELF_OPENLIBRARY_BURST"`
	MaxFailures  uint32        `yaml:"max_failures" envconfig:"BOOKSHELF_OPENLIBRARY_MAX_FAILURES"`
	BreakerReset time.Duration `yaml:"breaker_reset" envconfig:"BOOKSHELF_OPENLIBRARY_BREAKER_RESET"`
}

type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit" envconfig:"BOOKSHELF_PAGINATION_DEFAULT_LIMIT"`
	MaxLimit     int `yaml:"max_limit" envconfig:"BOOKSHELF_PAGINATION_MAX_LIMIT"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"BOOKSHELF_TELEMETRY_ENABLED"`
	Endpoint    string `yaml:"endpoint" envconfig:"BOOKSHELF_TELEMETRY_ENDPOINT"`
	Insecure    bool   `yaml:"insecure" envconfig:"BOOKSHELF_TELEMETRY_INSECURE"`
	ServiceName string `yaml:"service_name" envconfig:"BOOKSHELF_TELEMETRY_SERVICE_NAME"`
}

// Default returns the configuration used when no file nor environment overrides a value.
func Default() *Config {
	return &Config{
		LogLevel: zapcore.InfoLevel,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigin:   "*",
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			DSN:             "file:bookshelf.db?_foreign_keys=1&_busy_timeout=5000",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			AutoMigrate:     true,
		},
		OpenLibrary: OpenLibraryConfig{
			BaseURL:      "https://openlibrary.org",
			Timeout:      5 * time.Second,
			RateLimit:    5,
			Burst:        5,
			MaxFailures:  5,
			BreakerReset: 30 * time.Second,
		},
		Pagination: PaginationConfig{
			DefaultLimit: 100,
			MaxLimit:     1000,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			ServiceName: "bookshelf",
		},
	}
}

// LoadConfigFile decodes the yaml file on top of config. A missing file is not an error.
func LoadConfigFile(configFile string, config *Config) error {
	file, err := os.Open(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	err = yaml.NewDecoder(file).Decode(config)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadConfigEnvs reads the environments variables into config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig configures build values if provided then validates the result.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	return config.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Server.Host) == 0 || len(c.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q: use %q or %q", c.Database.Driver, DriverPostgres, DriverSQLite)
	}
	if len(c.Database.DSN) == 0 {
		return errors.New("make sure to set the database dsn")
	}

	u, err := url.Parse(c.OpenLibrary.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid openlibrary base url %q", c.OpenLibrary.BaseURL)
	}
	if c.OpenLibrary.Timeout <= 0 {
		return errors.New("openlibrary timeout must be positive")
	}
	if c.OpenLibrary.RateLimit < 0 {
		return errors.New("openlibrary rate limit cannot be negative")
	}

	if c.Pagination.DefaultLimit < 1 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		return fmt.Errorf("invalid pagination limits: default %d, max %d", c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}

	if c.Telemetry.Enabled && len(c.Telemetry.Endpoint) == 0 {
		return errors.New("telemetry is enabled without an exporter endpoint")
	}
	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	config := Default()

	configFile := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if err := LoadConfigFile(configFile, config); err != nil {
		return nil, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	// Set the environment configuration. Existing variables take precedence.
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	if err := LoadConfigEnvs(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	if err := InitConfig(config, gitCommit, gitTag, buildTime); err != nil {
		return nil, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}

// Address returns the listening address of the api server.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}
