// Package config loads settings for the altsource binary from an optional
// YAML file, a .env file and ALTSOURCE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreS3       = "s3"
	StorePostgres = "postgres"
)

type Config struct {
	LogLevel  string      `yaml:"log_level"`
	Addr      string      `yaml:"addr"`
	UserAgent string      `yaml:"user_agent"`
	Store     StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	File     string         `yaml:"file"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	UseSSL    *bool  `yaml:"use_ssl"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
	Key string `yaml:"key"`
}

// Load reads configuration. path names a YAML file and may be empty, in
// which case ALTSOURCE_CONFIG is consulted. A missing .env file is ignored;
// a named YAML file that cannot be read is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	path = firstNonEmpty(strings.TrimSpace(path), env("ALTSOURCE_CONFIG"))
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = firstNonEmpty(env("ALTSOURCE_LOG_LEVEL"), cfg.LogLevel)
	cfg.Addr = firstNonEmpty(env("ALTSOURCE_ADDR"), cfg.Addr)
	cfg.UserAgent = firstNonEmpty(env("ALTSOURCE_USER_AGENT"), cfg.UserAgent)

	st := &cfg.Store
	st.Backend = firstNonEmpty(strings.ToLower(env("ALTSOURCE_STORE")), strings.ToLower(st.Backend))
	st.File = firstNonEmpty(env("ALTSOURCE_FILE"), st.File)

	st.S3.Endpoint = firstNonEmpty(env("ALTSOURCE_S3_ENDPOINT"), st.S3.Endpoint)
	st.S3.Region = firstNonEmpty(env("ALTSOURCE_S3_REGION"), st.S3.Region)
	st.S3.AccessKey = firstNonEmpty(env("ALTSOURCE_S3_ACCESS_KEY"), env("MINIO_ROOT_USER"), st.S3.AccessKey)
	st.S3.SecretKey = firstNonEmpty(env("ALTSOURCE_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD"), st.S3.SecretKey)
	st.S3.Bucket = firstNonEmpty(env("ALTSOURCE_S3_BUCKET"), st.S3.Bucket)
	st.S3.Key = firstNonEmpty(env("ALTSOURCE_S3_KEY"), st.S3.Key)
	if raw := env("ALTSOURCE_S3_USE_SSL"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			st.S3.UseSSL = &v
		}
	}

	st.Postgres.DSN = firstNonEmpty(env("ALTSOURCE_PG_DSN"), st.Postgres.DSN)
}

func applyDefaults(cfg *Config) {
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, "info")
	cfg.Addr = firstNonEmpty(cfg.Addr, ":8080")

	st := &cfg.Store
	st.Backend = firstNonEmpty(st.Backend, StoreFile)
	st.File = firstNonEmpty(st.File, "altsource.json")
	st.S3.Region = firstNonEmpty(st.S3.Region, "us-east-1")
	st.S3.Bucket = firstNonEmpty(st.S3.Bucket, "altsource")
	st.S3.Key = firstNonEmpty(st.S3.Key, "source.json")
	if st.S3.UseSSL == nil {
		useSSL := true
		st.S3.UseSSL = &useSSL
	}
	st.Postgres.Key = firstNonEmpty(st.Postgres.Key, "default")
}

// Validate checks that the selected store backend is fully configured.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreFile:
		return nil
	case StoreS3:
		if c.Store.S3.Endpoint == "" {
			return errors.New("s3 store requires ALTSOURCE_S3_ENDPOINT")
		}
		return nil
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("postgres store requires ALTSOURCE_PG_DSN")
		}
		return nil
	}
	return fmt.Errorf("unknown store backend %q", c.Store.Backend)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
