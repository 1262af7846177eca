package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrUnknownDriver      = errors.New("unknown storage driver")
	ErrMissingDatabaseURL = errors.New("storage.database_url is required for the postgres driver")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env          string       `mapstructure:"env"` // local, production
	Server       Server       `mapstructure:"server"`
	OpenTDB      OpenTDB      `mapstructure:"opentdb"`
	Rating       Rating       `mapstructure:"rating"`
	Session      Session      `mapstructure:"session"`
	Connectivity Connectivity `mapstructure:"connectivity"`
	Storage      Storage      `mapstructure:"storage"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type OpenTDB struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Rating configures the OpenAI-compatible scoring endpoint.
type Rating struct {
	URL         string        `mapstructure:"url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ProfilePath string        `mapstructure:"profile_path"` // empty uses the built-in profile
}

type Session struct {
	MinLoadingTime time.Duration `mapstructure:"min_loading_time"`
}

type Connectivity struct {
	ProbeAddr string        `mapstructure:"probe_addr"` // host:port dialed to tell offline from API failure
	Timeout   time.Duration `mapstructure:"timeout"`
}

type Storage struct {
	Driver          string        `mapstructure:"driver"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// Load reads ./config/config.yaml (optional), then .env and QUIZ_* environment
// variables on top of it.
func Load() (*Config, error) {
	return LoadFrom("./config")
}

func LoadFrom(dir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("env", "local")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("opentdb.base_url", "https://opentdb.com")
	v.SetDefault("opentdb.timeout", "10s")
	v.SetDefault("rating.url", "http://localhost:1234")
	v.SetDefault("rating.model", "qwen3-8b")
	v.SetDefault("rating.timeout", "60s")
	v.SetDefault("rating.profile_path", "")
	v.SetDefault("session.min_loading_time", "0s")
	v.SetDefault("connectivity.probe_addr", "opentdb.com:443")
	v.SetDefault("connectivity.timeout", "3s")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "quiz.db")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.max_connections", 10)
	v.SetDefault("storage.max_conn_lifetime", "30m")

	// QUIZ_STORAGE_DRIVER overrides storage.driver, and so on.
	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("env", "QUIZ_ENV", "APP_ENV")
	_ = v.BindEnv("storage.database_url", "QUIZ_STORAGE_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return fmt.Errorf("%w: storage.sqlite_path is empty", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}

	if strings.TrimSpace(c.OpenTDB.BaseURL) == "" {
		return fmt.Errorf("%w: opentdb.base_url is empty", ErrInvalidConfig)
	}
	if c.OpenTDB.Timeout < 0 || c.Rating.Timeout < 0 || c.Connectivity.Timeout < 0 || c.Session.MinLoadingTime < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}
