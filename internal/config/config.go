// Package config loads Warbler's settings from the environment, an
// optional .env file and an optional config.yml.
//
// PRECEDENCE (highest first):
//  1. real environment variables
//  2. variables from .env (godotenv never overrides ones already set)
//  3. config.yml in the working directory
//  4. the defaults below
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// DevSecretKey is the development default. Validate refuses it in
	// production.
	DevSecretKey = "warbler-dev-secret-change-me"

	minSecretLength           = 16
	minProductionSecretLength = 32
)

// Config holds every runtime setting.
type Config struct {
	Env          string        `mapstructure:"APP_ENV"`
	Port         int           `mapstructure:"PORT"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	SecretKey    string        `mapstructure:"SECRET_KEY"`
	RedisURL     string        `mapstructure:"REDIS_URL"`
	SessionTTL   time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure bool          `mapstructure:"COOKIE_SECURE"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`
}

// Load reads the configuration. envFiles are passed to godotenv; with none
// given it looks for .env in the working directory. Missing files are not
// an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("DATABASE_URL", filepath.Join("data", "warbler.db"))
	v.SetDefault("SECRET_KEY", DevSecretKey)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_TTL", "168h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config.yml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction || c.Env == "prod"
}

// Validate checks required values and the stricter production rules.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.SecretKey) < minSecretLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretLength)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.IsProduction() {
		if c.SecretKey == DevSecretKey {
			return errors.New("SECRET_KEY must be changed from the default value in production")
		}
		if len(c.SecretKey) < minProductionSecretLength {
			return fmt.Errorf("SECRET_KEY must be at least %d characters in production", minProductionSecretLength)
		}
		if !c.CookieSecure {
			return errors.New("COOKIE_SECURE must be true in production")
		}
	}
	return nil
}

// Logger builds the application logger: human-readable text in
// development, JSON in production.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}
