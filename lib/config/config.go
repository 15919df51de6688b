// Package config loads settings from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/icco/cinerank/lib/tmdb"
	"github.com/icco/cinerank/lib/validation"
	"github.com/joho/godotenv"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Language    string
	MinVotes    int
	OutputDir   string
	DBPath      string
	Port        string
	LogLevel    slog.Level
	HTTPTimeout time.Duration
}

// Load reads .env files (when present) into the environment and then builds
// a Config from it. Variables already set in the environment win over .env.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIKey:      getenv("TMDB_API_KEY"),
		BaseURL:     orDefault(getenv("TMDB_BASE_URL"), tmdb.DefaultBaseURL),
		Language:    orDefault(getenv("TMDB_LANGUAGE"), tmdb.DefaultLanguage),
		MinVotes:    tmdb.DefaultMinVotes,
		OutputDir:   orDefault(getenv("OUTPUT_DIR"), "."),
		DBPath:      orDefault(getenv("DB_PATH"), "cinerank.db"),
		Port:        orDefault(getenv("PORT"), "8080"),
		LogLevel:    slog.LevelInfo,
		HTTPTimeout: 30 * time.Second,
	}

	if v := getenv("TMDB_MIN_VOTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, validation.Invalid("TMDB_MIN_VOTES", v, "must be a positive integer")
		}
		cfg.MinVotes = n
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, validation.Invalid("LOG_LEVEL", v, "must be debug, info, warn or error")
		}
	}

	if v := getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, validation.Invalid("HTTP_TIMEOUT", v, "must be a duration such as 30s")
		}
		cfg.HTTPTimeout = d
	}

	return cfg, nil
}

// RequireAPIKey fails when no TMDb key is configured.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return validation.Invalid("TMDB_API_KEY", "", "environment variable is required")
	}
	return nil
}

// TMDb returns the client settings; the HTTP client is left to the caller.
func (c Config) TMDb() tmdb.Config {
	return tmdb.Config{
		APIKey:   c.APIKey,
		BaseURL:  c.BaseURL,
		Language: c.Language,
		MinVotes: c.MinVotes,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
