// Package config reads the service configuration once at startup: an
// optional YAML file named by CONFIG_PATH, then environment variables, which
// take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ewintr.nl/chanwatch/model"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Nats struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Config struct {
	YoutubeAPIKey string   `yaml:"youtube_api_key"`
	ChannelIDs    []string `yaml:"channel_ids"`

	StorageDriver  string        `yaml:"storage_driver"`
	DBPath         string        `yaml:"db_path"`
	Postgres       Postgres      `yaml:"postgres"`
	Redis          Redis         `yaml:"redis"`
	StorageTimeout time.Duration `yaml:"storage_timeout"`

	Nats Nats `yaml:"nats"`

	APIPort          int           `yaml:"api_port"`
	FetchInterval    time.Duration `yaml:"fetch_interval"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	SearchTimeout    time.Duration `yaml:"search_timeout"`

	LogLevel string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		StorageDriver: DriverSQLite,
		DBPath:        "/tmp/state.db",
		Postgres: Postgres{
			Host:     "localhost",
			Port:     "5432",
			User:     "chanwatch",
			Password: "chanwatch",
			Database: "chanwatch",
		},
		Redis:            Redis{Addr: "localhost:6379"},
		StorageTimeout:   5 * time.Second,
		Nats:             Nats{Subject: "videos"},
		APIPort:          8080,
		FetchConcurrency: 4,
		SearchTimeout:    30 * time.Second,
		LogLevel:         "info",
	}
}

func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaults()

	if path, ok := lookup("CONFIG_PATH"); ok && path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	env := envReader{lookup: lookup}
	env.str("YOUTUBE_API_KEY", &cfg.YoutubeAPIKey)
	if v, ok := lookup("CHANNEL_IDS"); ok {
		cfg.ChannelIDs = SplitChannelIDs(v)
	}
	env.str("STORAGE_DRIVER", &cfg.StorageDriver)
	env.str("DB_PATH", &cfg.DBPath)
	env.str("POSTGRES_HOST", &cfg.Postgres.Host)
	env.str("POSTGRES_PORT", &cfg.Postgres.Port)
	env.str("POSTGRES_USER", &cfg.Postgres.User)
	env.str("POSTGRES_PASSWORD", &cfg.Postgres.Password)
	env.str("POSTGRES_DB", &cfg.Postgres.Database)
	env.str("REDIS_ADDR", &cfg.Redis.Addr)
	env.str("REDIS_PASSWORD", &cfg.Redis.Password)
	env.integer("REDIS_DB", &cfg.Redis.DB)
	env.duration("STORAGE_TIMEOUT", &cfg.StorageTimeout)
	env.str("NATS_URL", &cfg.Nats.URL)
	env.str("NATS_SUBJECT", &cfg.Nats.Subject)
	env.integer("API_PORT", &cfg.APIPort)
	env.duration("FETCH_INTERVAL", &cfg.FetchInterval)
	env.integer("FETCH_CONCURRENCY", &cfg.FetchConcurrency)
	env.duration("SEARCH_TIMEOUT", &cfg.SearchTimeout)
	env.str("LOG_LEVEL", &cfg.LogLevel)
	if env.err != nil {
		return nil, env.err
	}

	cfg.ChannelIDs = SplitChannelIDs(strings.Join(cfg.ChannelIDs, ","))
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate only rejects settings the process cannot start with. A missing
// api key or channel list is reported per fetch request instead.
func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.FetchInterval < 0 {
		return fmt.Errorf("FETCH_INTERVAL must not be negative, got %s", c.FetchInterval)
	}

	return nil
}

func (c *Config) Channels() []model.YoutubeChannelID {
	ids := make([]model.YoutubeChannelID, len(c.ChannelIDs))
	for i, id := range c.ChannelIDs {
		ids[i] = model.YoutubeChannelID(id)
	}
	return ids
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	if c.YoutubeAPIKey != "" {
		c.YoutubeAPIKey = "***"
	}
	if c.Postgres.Password != "" {
		c.Postgres.Password = "***"
	}
	if c.Redis.Password != "" {
		c.Redis.Password = "***"
	}
	return c
}

// SplitChannelIDs splits a comma separated list, dropping blank entries.
func SplitChannelIDs(s string) []string {
	ids := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func readFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("invalid integer for %s: %q", key, v)
		return
	}
	*dst = i
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok || v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("invalid duration for %s: %q", key, v)
		return
	}
	*dst = d
}
